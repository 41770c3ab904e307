package catalog

import "github.com/ppiankov/chatguard/internal/model"

type ruleDef struct {
	name      string
	category  model.Category
	expr      string
	minDigits int
}

// Evidence rules, in scan order per category. Social rules are evaluated
// against lower-cased text.
var evidenceDefs = []ruleDef{
	{name: "phone_grouped", category: model.CategoryPhone, expr: `\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`},
	{name: "phone_long_run", category: model.CategoryPhone, expr: `\b\d{10,}\b`},
	{name: "phone_area_code", category: model.CategoryPhone, expr: `\(\d{3}\)\s?\d{3}[-.\s]?\d{4}`},
	{name: "phone_international", category: model.CategoryPhone, expr: `\+\d{1,3}[-.\s]?\d{3,}`},
	{name: "phone_digit_run", category: model.CategoryPhone, expr: `\b\d{7,15}\b`},
	{name: "phone_prefix", category: model.CategoryPhone, expr: `(?i)phone\s*:?\s*\d+`},
	{name: "number_prefix", category: model.CategoryPhone, expr: `(?i)number\s*:?\s*\d+`},
	// "call me at 555" alone is a fragment, left to the conversation analyzer.
	{name: "call_me_at", category: model.CategoryPhone, expr: `(?i)call\s+me\s+at\s+\+?\d[\d\s().-]*`, minDigits: 7},

	{name: "url_scheme", category: model.CategoryWebsite, expr: `https?://\S+`},
	{name: "url_www", category: model.CategoryWebsite, expr: `www\.\S+`},
	{name: "domain_com", category: model.CategoryWebsite, expr: `(?i)\b[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.com\b`},
	{name: "domain_tld", category: model.CategoryWebsite, expr: `(?i)\b[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.(net|org|io|app|dev)\b`},

	{name: "email", category: model.CategoryEmail, expr: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`},
	{name: "email_spaced", category: model.CategoryEmail, expr: `\b[A-Za-z0-9._%+-]+\s*@\s*[A-Za-z0-9.-]+\s*\.\s*[A-Za-z]{2,}\b`},

	{name: "social_handle", category: model.CategorySocial, expr: `@\w+`},
	{name: "social_platform", category: model.CategorySocial, expr: `\b(instagram|insta|ig|facebook|fb|twitter|x\.com|whatsapp|telegram|snapchat|tiktok|youtube|discord)\b`},
}

var intentDefs = []ruleDef{
	{name: "contact_verb", expr: `(?i)\b(contact|reach|call|text|phone|number|website|link|email|handle|find|follow|add|dm|message)\b`},
	{name: "platform_name", expr: `(?i)\b(instagram|insta|ig|facebook|fb|twitter|x\.com|whatsapp|telegram|snapchat|tiktok|youtube)\b`},
	{name: "off_platform", expr: `(?i)\b(outside|off)\s+(platform|app|site|here)\b`},
	{name: "pointer_word", expr: `(?i)\b(my|check|visit|look|see)\b`},
}

// Fragment rules are individually weak and only scored alongside intent.
var fragmentDefs = []ruleDef{
	{name: "phone_fragment_3", category: model.CategoryPhone, expr: `\b\d{3}\b`},
	{name: "phone_fragment_3_4", category: model.CategoryPhone, expr: `\b\d{3}[-.\s]*\d{4}\b`},
	{name: "phone_fragment_4", category: model.CategoryPhone, expr: `\b\d{4}\b`},
	{name: "phone_fragment_pair", category: model.CategoryPhone, expr: `\b\d{2,3}[-.\s]*\d{2,4}\b`},

	{name: "domain_dot_tld", category: model.CategoryWebsite, expr: `(?i)\b\w+\s*(dot|\.)\s*(com|net|org|io|co|uk|app|dev)\b`},
	{name: "domain_www", category: model.CategoryWebsite, expr: `(?i)\bwww\s*\.\s*\w+`},
	{name: "domain_scheme", category: model.CategoryWebsite, expr: `(?i)\bhttps?\s*:\s*/\s*/\s*\w+`},
	{name: "domain_dotted", category: model.CategoryWebsite, expr: `(?i)\b\w+\s*\.\s*\w+\s*\.\s*\w+`},

	{name: "email_at_word", category: model.CategoryEmail, expr: `@\s*\w+`},
	{name: "email_word_at", category: model.CategoryEmail, expr: `\w+\s*@`},
	{name: "email_spelled", category: model.CategoryEmail, expr: `(?i)\b\w+\s*(at|@)\s*\w+\s*(dot|\.)\s*(com|net|org|gmail|yahoo|hotmail)`},

	{name: "social_at_word", category: model.CategorySocial, expr: `@\s*\w+`},
	{name: "social_handle_word", category: model.CategorySocial, expr: `(?i)\bhandle\s*[:@]?\s*\w+`},
	{name: "social_platform_word", category: model.CategorySocial, expr: `(?i)\b(instagram|ig|facebook|fb|twitter|x)\s*[:@]?\s*\w+`},
}

var spacingDefs = []ruleDef{
	{name: "spaced_digits", expr: `\d\s+\d\s+\d`},
	{name: "spaced_dot", expr: `(?i)\w+\s+dot\s+\w+`},
	{name: "spaced_at", expr: `(?i)\w+\s+at\s+\w+`},
}

const numberTokenExpr = `\b\d{2,4}\b`
