package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"snaplens/internal/models"
)

const (
	maxTitleRunes    = 50
	maxSummaryRunes  = 160
	minReadableRunes = 3

	untitledTitle      = "Untitled Screenshot"
	unreadableSummary  = "No readable text was found in this screenshot."
	unreadableAction   = "Try uploading a clearer screenshot."
	defaultNoteAction  = "Save as note for reference"
	summarySentenceMax = 2
)

const monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

var (
	currencySymbolPattern = regexp.MustCompile(`[$₹€£¥]`)
	expenseWordPattern    = regexp.MustCompile(`(?i)\b(?:paid|payments?|amount|total|invoice|receipt|bill(?:ed|ing)?|price|transactions?|purchased?|cost|debit(?:ed)?|credit(?:ed)?|upi|gpay|paytm|phonepe|rupees?|dollars?)\b`)
	currencyAmountPattern = regexp.MustCompile(`(?i)[$₹€£¥]\s?\d[\d,]*(?:\.\d{1,2})?|\b(?:rs\.?|inr|usd|eur|gbp)\s?\d[\d,]*(?:\.\d{1,2})?|\b\d[\d,]*(?:\.\d{1,2})?\s?(?:usd|eur|inr|gbp|rupees?|dollars?)\b`)

	reminderWordPattern = regexp.MustCompile(`(?i)\b(?:remind(?:er|ers)?|remember|don['’]?t forget|meetings?|appointments?|schedule[d]?|calendar|events?|attend|today|tomorrow|tonight|next week|rsvp)\b`)
	dateTimePattern     = regexp.MustCompile(`(?i)\b\d{4}-\d{2}-\d{2}\b` +
		`|\b\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}\b` +
		`|\b\d{1,2}(?:st|nd|rd|th)?\s+` + monthPattern + `(?:,?\s+\d{4})?\b` +
		`|\b` + monthPattern + `\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b` +
		`|\b(?:[01]?\d|2[0-3]):[0-5]\d(?:\s?[ap]\.?m\b\.?|\b)` +
		`|\b\d{1,2}\s?[ap]\.?m\b\.?`)

	// Scheme and www are case-insensitive, bare domains lower-case only.
	urlPattern      = regexp.MustCompile(`(?i:\bhttps?://)[^\s<>"']+|(?i:\bwww\.)[^\s<>"']+|\b[a-z0-9][a-z0-9-]*(?:\.[a-z0-9-]+)*\.(?:com|org|net|io|dev|in|co|app|ai|edu|gov)\b(?:/[^\s<>"']*)?`)
	linkWordPattern = regexp.MustCompile(`(?i)\b(?:github|linkedin|youtube|website|visit|click here)\b`)

	taskWordPattern = regexp.MustCompile(`(?i)\b(?:todo|to-do|to do|deadline|due|assignments?|homework|submit|submission|tasks?|pending|complete[ds]?|finish(?:ed|es)?|projects?|deliver(?:y|ed|ables?)?|must do)\b`)
	dueTokenPattern = regexp.MustCompile(`(?i)\b(?:due|deadline|by|before)\b[:\s]+(?:on\s+)?((?:mon|tues|wednes|thurs|fri|satur|sun)day|eod|eow|end of (?:the )?(?:day|week|month)|next (?:week|month)|today|tomorrow|tonight)\b`)

	sentenceEndPattern = regexp.MustCompile(`[.!?](?:\s|$)`)
)

type categoryRule struct {
	category models.Category
	matches  func(text string) bool
	detail   func(text string) string
}

// rules are evaluated in order, the first match wins.
var rules = []categoryRule{
	{
		category: models.CategoryExpense,
		matches: func(text string) bool {
			return currencySymbolPattern.MatchString(text) || expenseWordPattern.MatchString(text) || currencyAmountPattern.MatchString(text)
		},
		detail: func(text string) string {
			return strings.TrimSpace(currencyAmountPattern.FindString(text))
		},
	},
	{
		category: models.CategoryReminder,
		matches: func(text string) bool {
			return reminderWordPattern.MatchString(text) || dateTimePattern.MatchString(text)
		},
		detail: func(text string) string {
			return strings.TrimSpace(dateTimePattern.FindString(text))
		},
	},
	{
		category: models.CategoryLink,
		matches: func(text string) bool {
			return urlPattern.MatchString(text) || linkWordPattern.MatchString(text)
		},
		detail: func(text string) string {
			return strings.TrimRight(urlPattern.FindString(text), ".,;:!?)]}")
		},
	},
	{
		category: models.CategoryTask,
		matches:  taskWordPattern.MatchString,
		detail: func(text string) string {
			if m := dueTokenPattern.FindStringSubmatch(text); m != nil {
				return m[1]
			}
			return ""
		},
	},
}

// RuleClassifier assigns an Intent from OCR text with fixed keyword rules.
// It never fails; empty or unmatched text yields a placeholder note.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

func (c *RuleClassifier) Classify(text string) models.Intent {
	text = strings.TrimSpace(sanitizeUTF8(text))
	collapsed := collapseWhitespace(text)

	if utf8.RuneCountInString(collapsed) < minReadableRunes {
		return models.Intent{
			Category:        models.CategoryNote,
			Title:           untitledTitle,
			Summary:         unreadableSummary,
			SuggestedAction: unreadableAction,
		}
	}

	category := models.CategoryNote
	var keyDetail string
	for _, rule := range rules {
		if rule.matches(text) {
			category = rule.category
			keyDetail = rule.detail(text)
			break
		}
	}

	intent := models.Intent{
		Category:        category,
		Title:           titleFromText(text),
		Summary:         summaryFromText(collapsed),
		SuggestedAction: suggestedAction(category, keyDetail),
	}
	if keyDetail != "" {
		intent.KeyDetail = strPtr(keyDetail)
	}

	return intent
}

func titleFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = collapseWhitespace(line); line != "" {
			return truncateRunes(line, maxTitleRunes)
		}
	}
	return untitledTitle
}

func summaryFromText(collapsed string) string {
	if collapsed == "" {
		return unreadableSummary
	}

	end := len(collapsed)
	ends := sentenceEndPattern.FindAllStringIndex(collapsed, summarySentenceMax)
	if len(ends) == summarySentenceMax {
		end = ends[summarySentenceMax-1][0] + 1
	}

	return truncateRunes(strings.TrimSpace(collapsed[:end]), maxSummaryRunes)
}

func suggestedAction(category models.Category, keyDetail string) string {
	switch category {
	case models.CategoryTask:
		if keyDetail != "" {
			return "Save as task (due: " + keyDetail + ")"
		}
		return "Save as task"
	case models.CategoryReminder:
		if keyDetail != "" {
			return "Create reminder for " + keyDetail
		}
		return "Create reminder"
	case models.CategoryExpense:
		if keyDetail != "" {
			return "Log expense of " + keyDetail
		}
		return "Log expense"
	case models.CategoryLink:
		if keyDetail != "" {
			return "Save link: " + keyDetail
		}
		return "Save link"
	default:
		return defaultNoteAction
	}
}
