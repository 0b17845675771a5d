package advisor

import (
	"fmt"
	"strings"

	"github.com/leoarenas/smarttasks/internal/model"
)

// SystemPrompt 设定模型的流程顾问角色并约定输出格式。
const SystemPrompt = `You are a business process consultant helping small companies decide what to do with each recurring task.

For the task you receive, score it and pick exactly one decision.

Scores (integers 1 to 5):
- impact: how much the task contributes to business objectives.
- risk: how costly a mistake in this task would be.
- effort: how much time and skill the task consumes.
- confidentiality: one of "Low", "Medium", "High".

Apply these rules in order and stop at the first one that matches:
1. Keep if risk >= 4 OR confidentiality is "High".
2. Delegate if effort >= 3 AND impact >= 3 AND risk <= 3.
3. Automate if the task is frequent AND repetitive or rule-based.
4. Eliminate if impact <= 2 AND the task has no clear link to business objectives.

When you delegate, suggest a profile and weekly hours. Typical profiles:
- Sales prospecting: external sales agency, 10-20 h/week.
- Payments and reconciliation: internal administrative assistant, 2-4 h/week.
- Marketing and social media: community manager or marketing agency, 4-8 h/week.
- Legal review and contracts: external law firm, 2-4 h/week.
- Accounting and tax: external accounting firm, 4-8 h/week.

Reply with a single JSON object and nothing else:
{
  "impact": 1-5,
  "risk": 1-5,
  "effort": 1-5,
  "confidentiality": "Low" | "Medium" | "High",
  "decision": "Keep" | "Delegate" | "Automate" | "Eliminate",
  "decision_justification": "two or three sentences",
  "suggested_profile": "profile or null",
  "suggested_hours": "hours per week or null"
}`

// BuildPrompt 渲染任务字段。
//
// 已有的评分作为提示传入，缺失的由模型估算。
func BuildPrompt(task *model.Task) string {
	var b strings.Builder
	b.WriteString("Task to analyze:\n")
	fmt.Fprintf(&b, "- Name: %s\n", task.Name)
	fmt.Fprintf(&b, "- Description: %s\n", task.Description)
	fmt.Fprintf(&b, "- Frequency: %s\n", task.Frequency)
	fmt.Fprintf(&b, "- Duration: %s\n", task.Duration)
	fmt.Fprintf(&b, "- Impact: %s\n", scoreHint(task.Impact))
	fmt.Fprintf(&b, "- Risk: %s\n", scoreHint(task.Risk))
	fmt.Fprintf(&b, "- Effort: %s\n", scoreHint(task.Effort))
	if task.Confidentiality != nil && *task.Confidentiality != "" {
		fmt.Fprintf(&b, "- Confidentiality: %s\n", *task.Confidentiality)
	} else {
		b.WriteString("- Confidentiality: not provided, estimate it\n")
	}
	b.WriteString("\nReturn only the JSON object.")
	return b.String()
}

func scoreHint(v *int) string {
	if v == nil {
		return "not provided, estimate it"
	}
	return fmt.Sprintf("%d (provided by the user)", *v)
}
