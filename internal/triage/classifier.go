package triage

import "strings"

type Category string

const (
	CategoryRoadHazard        Category = "Road Hazard"
	CategoryTrashWaste        Category = "Trash & Waste"
	CategoryVandalism         Category = "Vandalism"
	CategoryStreetlightOutage Category = "Streetlight Outage"
	CategoryGeneralInquiry    Category = "General Inquiry"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Result Итог классификации одного обращения
type Result struct {
	Category Category `json:"category"`
	Priority Priority `json:"priority"`
}

type categoryRule struct {
	category Category
	keywords []string
}

type priorityRule struct {
	priority Priority
	keywords []string
}

// Порядок правил важен: побеждает первое совпадение
var categoryRules = []categoryRule{
	{CategoryRoadHazard, []string{"pothole", "crack", "road"}},
	{CategoryTrashWaste, []string{"trash", "waste", "dumpster"}},
	{CategoryVandalism, []string{"graffiti", "vandalism"}},
	{CategoryStreetlightOutage, []string{"light", "lamp"}},
}

var priorityRules = []priorityRule{
	{PriorityHigh, []string{"fire", "leak", "danger", "hazard", "urgent", "asap"}},
	{PriorityLow, []string{"minor", "small"}},
}

// Classify Определяет категорию и приоритет по ключевым словам в описании
func Classify(description string) Result {
	desc := strings.ToLower(description)

	result := Result{
		Category: CategoryGeneralInquiry,
		Priority: PriorityMedium,
	}

	for _, rule := range categoryRules {
		if containsAny(desc, rule.keywords) {
			result.Category = rule.category
			break
		}
	}

	for _, rule := range priorityRules {
		if containsAny(desc, rule.keywords) {
			result.Priority = rule.priority
			break
		}
	}

	return result
}

// Categories возвращает все возможные категории, включая категорию по умолчанию
func Categories() []Category {
	categories := make([]Category, 0, len(categoryRules)+1)
	for _, rule := range categoryRules {
		categories = append(categories, rule.category)
	}

	return append(categories, CategoryGeneralInquiry)
}

// Priorities возвращает все возможные приоритеты
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}

	return false
}
