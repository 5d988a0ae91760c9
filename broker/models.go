package broker

// Overview is the broker summary card shown next to the pipeline.
type Overview struct {
	Name         string `json:"name"`
	Deals        int    `json:"deals"`
	ApprovalRate string `json:"approval_rate"`
	Pending      int64  `json:"pending"`
}

// Message is a notification template produced by a broker action.
type Message struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// DemoOverview is the fixture broker.
func DemoOverview() Overview {
	return Overview{
		Name:         "Robert Turner",
		Deals:        16,
		ApprovalRate: "75%",
		Pending:      7660,
	}
}

// DemoWorkflowSteps is the fixture loan workflow, in order.
func DemoWorkflowSteps() []string {
	return []string{
		"Deal Intake",
		"IDV & Credit Check",
		"Document Upload",
		"AI Validation",
		"Credit Committee",
		"Approval & Docs",
		"Funder Syndication",
	}
}
