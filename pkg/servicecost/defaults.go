package servicecost

// Default service labels.
const (
	LabelBroker           = "broker"
	LabelLegal            = "legal"
	LabelAppraisal        = "appraisal"
	LabelMortgageAdvisory = "mortgage advisory"
	LabelInspection       = "inspection"
	LabelRenovation       = "renovation"
	LabelFurniture        = "furniture"
)

func percent(v float64) *float64 { return &v }

func amount(v float64) *float64 { return &v }

// DefaultServices returns the brokerage's default cost lines as a fresh
// slice. Renovation and furniture start unconfigured so they show up with a
// zero cost until the user fills them in.
func DefaultServices() []ServiceInput {
	return []ServiceInput{
		{Label: LabelBroker, Percent: percent(2)},
		{Label: LabelLegal, Percent: percent(0.5)},
		{Label: LabelAppraisal, Amount: amount(2500)},
		{Label: LabelMortgageAdvisory, Amount: amount(7000)},
		{Label: LabelInspection, Amount: amount(2000)},
		{Label: LabelRenovation, IncludesVAT: true},
		{Label: LabelFurniture, IncludesVAT: true},
	}
}
