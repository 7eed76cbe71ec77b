package portfolio

import "html/template"

// InvalidImageMessage is shown when a file picker selection is not an image.
const InvalidImageMessage = "الرجاء اختيار ملف صورة صالح (مثل: png, jpg)."

type Skill struct {
	Name  string
	Icon  string
	Level int
}

type Metric struct {
	Value  string
	Label  string
	Detail string
}

type Entry struct {
	Title    string
	Org      string
	Period   string
	Icon     string
	Bullets  []string
	Note     string
	Emphasis string
}

type ContactLink struct {
	Label    string
	Detail   string
	Href     string
	Icon     string
	External bool
}

// ProofSlot describes the placeholder copy for a proof-of-work image.
type ProofSlot struct {
	Slot        string
	Caption     string
	Prompt      string
	Hint        string
	Alt         string
	Placeholder string
}

// Profile is everything the page renders besides the interactive state.
type Profile struct {
	Name     string
	Initials string
	Title    string
	Tagline  string
	Bio      []template.HTML
	Badges   []string
	Niches   []string
	Skills   []Skill
	Tools    []string
	ToolNote string

	CaseTitle    string
	CaseSubtitle string
	CaseHeading  string
	Metrics      []Metric
	Proofs       []ProofSlot
	Successes    []string
	CaseTags     []string

	Experience []Entry
	Education  []Entry

	ContactPitch string
	Contacts     []ContactLink
	Footer       string
}

var (
	bioMarkdown = []string{
		`I'm a Junior SEO Specialist with over **6 months** of specialized, high-impact experience in
e-commerce optimization, particularly within the competitive Saudi market. My focus is always on
delivering measurable results: more organic traffic, more conversions, more revenue.`,

		`Currently working at **Moasher Company**, I leverage platforms like Salla and Zid to help
businesses across diverse niches significantly improve their online visibility, organic traffic,
and ultimately, conversion rates.`,
	}

	niches = []string{
		"Metalwork",
		"Herbal Products",
		"Flowers & Floristry",
		"Digital Files",
		"Car Accessories",
		"Bedroom Essentials",
	}

	skills = []Skill{
		{Name: "On-Page SEO", Icon: "layout", Level: 90},
		{Name: "E-Commerce SEO", Icon: "trending-up", Level: 85},
		{Name: "Keyword Research", Icon: "search", Level: 90},
		{Name: "Content Optimization", Icon: "code", Level: 85},
		{Name: "Google Analytics", Icon: "bar-chart-3", Level: 80},
		{Name: "CRO (Conversion Rate Optimization)", Icon: "target", Level: 75},
	}

	tools = []string{
		"Google Search Console",
		"Google Analytics 4",
		"SEMrush",
		"Ahrefs",
		"Google My Business",
		"Salla Platform",
		"Zid Platform",
	}

	metrics = []Metric{
		{Value: "+38.33%", Label: "Organic Traffic Increase", Detail: "3.02K → 4.18K visits (MoM)"},
		{Value: "+40.43%", Label: "Sales Growth (Conversions)", Detail: "280 → 393 transactions (MoM)"},
		{Value: "+64.66%", Label: "Revenue Increase (SAR)", Detail: "SAR 4,810 → 7,920 (MoM)"},
	}

	proofs = []ProofSlot{
		{
			Slot:        "proof1",
			Caption:     "صورة إثبات الأداء (1): مخطط البحث العضوي",
			Prompt:      "اضغط هنا لتحميل صورة إثبات GSC",
			Hint:        "(إثبات نمو الزيارات بنسبة 38%)",
			Alt:         "Organic Traffic Trend Screenshot",
			Placeholder: "bar-chart-3",
		},
		{
			Slot:        "proof2",
			Caption:     "صورة إثبات الأداء (2): لوحة مبيعات التجارة الإلكترونية",
			Prompt:      "اضغط هنا لتحميل صورة إثبات المبيعات",
			Hint:        "(إثبات نمو الإيرادات بنسبة 64%)",
			Alt:         "Sales Metrics Screenshot",
			Placeholder: "external-link",
		},
	}

	successes = []string{
		"Increased organic search traffic by 38.33% within one month by optimizing category and product pages.",
		"Boosted conversion rate through strategic CTA placement and site speed improvements.",
		"Achieved 40.43% growth in total sales (280 to 393 transactions) directly attributable to organic uplift.",
		"Generated SAR 7,920 in revenue, a 64.66% increase from the previous period.",
		"Improved organic impressions by 28.11% (2,024 to 2,593) using targeted long-tail keywords.",
	}

	experience = []Entry{
		{
			Title:  "Junior SEO Specialist",
			Org:    "Moasher Company",
			Period: "May 2025 – Present",
			Icon:   "briefcase",
			Bullets: []string{
				"Developed and deployed SEO strategies for over 5 e-commerce stores in the Saudi market.",
				"Performed technical audits and implemented structured data markup for enhanced SERP visibility.",
				"Generated monthly performance reports to track ROI and identify new growth opportunities.",
			},
		},
		{
			Title:  "SEO Intern",
			Org:    "Moasher Company",
			Period: "February 2025 – April 2025",
			Icon:   "briefcase",
			Bullets: []string{
				"Assisted in conducting detailed keyword research and competitor analysis for content gaps.",
				"Executed on-page optimizations, including meta tags, image alt texts, and URL restructuring.",
				"Monitored website performance using Google Analytics and Search Console.",
			},
		},
	}

	education = []Entry{
		{
			Title:    "Bachelor of Commerce - Accounting",
			Org:      "Mansoura University",
			Period:   "Class of 2025",
			Icon:     "graduation-cap",
			Emphasis: "Very Good",
			Note:     "The analytical skills and attention to detail from my accounting background are directly applied to my data-driven SEO work.",
		},
	}

	contacts = []ContactLink{
		{Label: "Email Me", Detail: "ahmedhamada8100@gmail.com", Href: "mailto:ahmedhamada8100@gmail.com", Icon: "mail"},
		{Label: "Call Me", Detail: "+20 102 317 0647", Href: "tel:+201023170647", Icon: "phone"},
		// TODO: replace with the real LinkedIn profile URL once it is public.
		{Label: "LinkedIn", Detail: "Connect Online", Href: "#", Icon: "linkedin", External: true},
	}
)

// LoadProfile renders the Markdown parts of the profile and returns the
// complete page content.
func LoadProfile() (*Profile, error) {
	bio := make([]template.HTML, 0, len(bioMarkdown))
	for _, md := range bioMarkdown {
		html, err := RenderMarkdown(md)
		if err != nil {
			return nil, err
		}
		bio = append(bio, html)
	}

	return &Profile{
		Name:     "Ahmed Hamada Elsaid",
		Initials: "AE",
		Title:    "Junior SEO Specialist",
		Tagline:  "Driving measurable growth for e-commerce businesses in the Saudi market through data-driven, conversion-focused SEO strategies.",
		Bio:      bio,
		Badges:   []string{"6+ Months Experience", "Saudi Market Expert"},
		Niches:   niches,
		Skills:   skills,
		Tools:    tools,
		ToolNote: "Proficient in utilizing these industry-standard tools for data analysis, keyword tracking, and optimization implementation.",

		CaseTitle:    "High-Impact SEO Campaign (Q2 2025)",
		CaseSubtitle: "Comprehensive On-Page & Conversion Optimization for a Saudi E-Tailer",
		CaseHeading:  "Featured Project: E-Commerce Growth",
		Metrics:      metrics,
		Proofs:       proofs,
		Successes:    successes,
		CaseTags:     []string{"On-Page SEO", "Data Analysis", "Conversion Optimization", "E-Commerce"},

		Experience: experience,
		Education:  education,

		ContactPitch: "Ready to grow your e-commerce business? I'm actively looking for new opportunities.",
		Contacts:     contacts,
		Footer:       "© 2025 Ahmed Hamada Elsaid. All rights reserved.",
	}, nil
}
