// Package pricing lists the subscription plans.
package pricing

import "strings"

// Plan is one subscription tier.
type Plan struct {
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Period      string   `json:"period"`
	Description string   `json:"description"`
	ButtonText  string   `json:"button_text"`
	Features    []string `json:"features"`
	Limitations []string `json:"limitations"`
	Popular     bool     `json:"popular"`
}

// Tier is the identifier the payment backend expects for the plan.
func (p Plan) Tier() string {
	return strings.ToLower(p.Name)
}

// Plans returns the plans in display order. The slice is freshly allocated.
func Plans() []Plan {
	return []Plan{
		{
			Name:        "Free",
			Price:       "$0",
			Period:      "One-time",
			Description: "Perfect for trying out our AI scriptwriting",
			Features: []string{
				"100 minutes of script generation",
				"Basic analysis depth",
				"Standard latency (30-60 seconds)",
				"Basic templates",
				"Community support",
			},
			Limitations: []string{
				"One-time use per user",
				"Limited customization",
				"No priority support",
			},
			ButtonText: "Get Started",
		},
		{
			Name:        "Basic",
			Price:       "$15",
			Period:      "/month",
			Description: "Great for regular content creators",
			Features: []string{
				"500 minutes of script generation",
				"Enhanced analysis depth",
				"Fast latency (15-30 seconds)",
				"Advanced templates",
				"Priority email support",
				"Export options",
				"Custom branding",
			},
			Limitations: []string{},
			ButtonText:  "Choose Basic",
			Popular:     true,
		},
		{
			Name:        "Pro",
			Price:       "$25",
			Period:      "/month",
			Description: "For professional content creators and teams",
			Features: []string{
				"Unlimited script generation",
				"Premium analysis depth",
				"Ultra-fast latency (5-15 seconds)",
				"Premium templates & customization",
				"24/7 priority support",
				"Advanced export options",
				"Team collaboration",
				"API access",
				"Custom integrations",
			},
			Limitations: []string{},
			ButtonText:  "Choose Pro",
		},
	}
}

// Find looks a plan up by name or tier, ignoring case.
func Find(name string) (Plan, bool) {
	for _, plan := range Plans() {
		if strings.EqualFold(plan.Name, strings.TrimSpace(name)) {
			return plan, true
		}
	}
	return Plan{}, false
}
