package mailer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDailyDigest(t *testing.T) {
	r, err := NewRenderer("http://localhost:3000", "TaskMaster Pro")
	require.NoError(t, err)

	due := time.Date(2026, 4, 1, 17, 30, 0, 0, time.UTC)
	out, err := r.Render(TemplateDailyDigest, DigestData{
		OwnerName: "Grace",
		Tasks: []DigestItem{
			{Title: "Review PR", Priority: "medium", DueDate: due},
			{Title: "Pay invoice", Priority: "high", DueDate: due.Add(-48 * time.Hour), Overdue: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Your daily digest: 2 open tasks", out.Subject)
	assert.Contains(t, out.Text, "- Review PR (medium) due Wed Apr 1 17:30 UTC")
	assert.Contains(t, out.Text, "- Pay invoice (high) due Mon Mar 30 17:30 UTC [OVERDUE]")
	assert.Contains(t, out.HTML, "Good morning Grace,")
	assert.Contains(t, out.HTML, "overdue")
}

func TestRenderEscapesHTML(t *testing.T) {
	r, err := NewRenderer("http://localhost:3000", "TaskMaster Pro")
	require.NoError(t, err)

	out, err := r.Render(TemplateTaskReminder, ReminderData{
		Title:          "<script>alert(1)</script>",
		Priority:       "low",
		OwnerName:      "Eve",
		HoursRemaining: 24,
	})
	require.NoError(t, err)

	assert.NotContains(t, out.HTML, "<script>alert(1)</script>")
	assert.Contains(t, out.HTML, "&lt;script&gt;")
	assert.Contains(t, out.Text, "is due in 24 hours.")
}

func TestRenderUnknownTemplate(t *testing.T) {
	r, err := NewRenderer("http://localhost:3000", "TaskMaster Pro")
	require.NoError(t, err)

	_, err = r.Render("passwordReset", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestRenderWrongDataType(t *testing.T) {
	r, err := NewRenderer("http://localhost:3000", "TaskMaster Pro")
	require.NoError(t, err)

	_, err = r.Render(TemplateTaskReminder, struct{}{})
	assert.Error(t, err)
}

func TestRenderTaskCompleted(t *testing.T) {
	r, err := NewRenderer("http://localhost:3000/", "TaskMaster Pro")
	require.NoError(t, err)

	out, err := r.Render(TemplateTaskCompleted, CompletionData{
		Title:       "Ship release",
		Description: "v2.0",
		OwnerName:   "Grace",
	})
	require.NoError(t, err)

	assert.Equal(t, `Task completed: "Ship release". Great job!`, out.Subject)
	assert.Contains(t, out.Text, `You've completed the task: "Ship release".`)
	assert.Contains(t, out.Text, "http://localhost:3000/dashboard")
	assert.Contains(t, out.HTML, "Congratulations, Grace!")
	assert.Contains(t, out.HTML, "The TaskMaster Pro Team")
}
