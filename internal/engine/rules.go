package engine

import "regexp"

// Intent is a coarse category of inquiry used to pick a canned reply.
type Intent string

const (
	IntentStatus    Intent = "status"
	IntentPayment   Intent = "payment"
	IntentDocuments Intent = "documents"
	IntentDeadline  Intent = "deadline"
	IntentGreeting  Intent = "greeting"
	IntentUnknown   Intent = "unknown"
)

// IntentRule maps an ordered set of patterns to a canned answer.
type IntentRule struct {
	Intent   Intent
	Patterns []string
	Answer   string
}

// intentRules is scanned top to bottom; the first rule with any matching
// pattern wins, so declaration order is part of the contract.
var intentRules = []IntentRule{
	{
		Intent:   IntentStatus,
		Patterns: []string{"حالة الطلب", "متابعة الطلب", "وين وصل", "أين وصل", "استعلام", "رقم الطلب", "وضع المعاملة"},
		Answer:   "يمكنكم متابعة حالة طلبكم من خلال رقم المعاملة عبر بوابة الخدمات، وسيتم إشعاركم بأي تحديث فور صدوره.",
	},
	{
		Intent:   IntentPayment,
		Patterns: []string{"دفع", "سداد", "فاتورة", "رسوم", "مبلغ", "استرداد"},
		Answer:   "يمكنكم سداد الرسوم إلكترونياً عبر بوابة الدفع، وتصلكم الفاتورة على بريدكم المسجل خلال دقائق من إتمام العملية.",
	},
	{
		Intent:   IntentDocuments,
		Patterns: []string{"مستند", "وثيقة", "أوراق", "شهادة", "مرفق", "نسخة"},
		Answer:   "المستندات المطلوبة موضحة في صفحة الخدمة، ويمكن إرفاقها إلكترونياً بصيغة PDF دون الحاجة لمراجعة المكتب.",
	},
	{
		Intent:   IntentDeadline,
		Patterns: []string{"موعد", "مهلة", "متى", "تاريخ التسليم", "آخر موعد", "كم يستغرق"},
		Answer:   "مدة إنجاز المعاملة الاعتيادية خمسة أيام عمل من تاريخ اكتمال المستندات، وسيتم إبلاغكم بأي مواعيد إضافية.",
	},
	{
		Intent:   IntentGreeting,
		Patterns: []string{"مرحبا", "السلام عليكم", "صباح الخير", "مساء الخير", "أهلا", "تحية طيبة"},
		Answer:   "أهلاً وسهلاً بكم، كيف يمكننا خدمتكم اليوم؟",
	},
}

// DepartmentRule is a fixed scoring rule for one organizational unit.
// Positive patterns add Weight on each hit; negatives subtract the
// configured rule penalty. Base and Weight may be overridden at runtime.
type DepartmentRule struct {
	Department    string
	Justification string
	Positive      []string
	Negative      []string
	Base          float64
	Weight        float64
}

const (
	DeptFinance     = "إدارة الخزينة والمالية"
	DeptLegal       = "إدارة الشؤون القانونية"
	DeptIT          = "إدارة تقنية المعلومات"
	DeptHR          = "إدارة الموارد البشرية"
	DeptLicensing   = "إدارة التراخيص والتصاريح"
	DeptMaintenance = "إدارة الصيانة والخدمات الميدانية"
	DeptInquiries   = "إدارة الاستعلامات والشكاوى"
)

var departmentRules = []DepartmentRule{
	{
		Department:    DeptFinance,
		Justification: "النص يتضمن مؤشرات مالية (دفع، رسوم، فواتير)",
		Positive:      []string{"دفع", "سداد", "رسوم", "فاتورة", "استرداد", "مبلغ", "تحويل بنكي"},
		Negative:      []string{"راتب"},
		Base:          0.8,
		Weight:        0.08,
	},
	{
		Department:    DeptLegal,
		Justification: "النص يتضمن صيغة شكوى أو مصطلحات قانونية",
		Positive:      []string{"شكوى", "تظلم", "اعتراض", "مخالفة", "دعوى", "عقد"},
		Base:          0.78,
		Weight:        0.07,
	},
	{
		Department:    DeptIT,
		Justification: "النص يشير إلى عطل أو مشكلة تقنية",
		Positive:      []string{"عطل", "لا يعمل", "توقف", "شبكة", "سيرفر", "الموقع الإلكتروني", "تطبيق"},
		Base:          0.76,
		Weight:        0.07,
	},
	{
		Department:    DeptLicensing,
		Justification: "النص يتعلق بإصدار أو تجديد ترخيص أو تصريح",
		Positive:      []string{"رخصة", "ترخيص", "تصريح", "تجديد رخصة", "إصدار رخصة"},
		Base:          0.75,
		Weight:        0.06,
	},
	{
		Department:    DeptHR,
		Justification: "النص يتعلق بشؤون الموظفين والتوظيف",
		Positive:      []string{"توظيف", "وظيفة", "راتب", "إجازة", "دوام", "ترقية"},
		Negative:      []string{"فاتورة", "سداد"},
		Base:          0.74,
		Weight:        0.06,
	},
	{
		Department:    DeptMaintenance,
		Justification: "النص يتعلق بأعمال الصيانة والخدمات الميدانية",
		Positive:      []string{"صيانة", "حفرة", "إنارة", "طريق", "نظافة", "تسرب"},
		Base:          0.72,
		Weight:        0.06,
	},
}

// compiledRule pairs a DepartmentRule with its precompiled patterns so the
// fixed table is only compiled once at package init.
type compiledRule struct {
	DepartmentRule
	pos []*regexp.Regexp
	neg []*regexp.Regexp
}

var compiledRules = compileRules(departmentRules)

func compileRules(rules []DepartmentRule) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{DepartmentRule: r}
		for _, p := range r.Positive {
			cr.pos = append(cr.pos, regexp.MustCompile("(?i)"+p))
		}
		for _, p := range r.Negative {
			cr.neg = append(cr.neg, regexp.MustCompile("(?i)"+p))
		}
		out = append(out, cr)
	}
	return out
}

func ruleJustification(department string) string {
	for _, r := range departmentRules {
		if r.Department == department {
			return r.Justification
		}
	}
	return ""
}
