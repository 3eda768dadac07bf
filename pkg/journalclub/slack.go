package journalclub

import (
	"fmt"

	"github.com/agentstation/airsync/pkg/notify/slack"
)

// SlackMessage renders a meeting announcement.
func SlackMessage(m Meeting) slack.Message {
	blocks := []slack.Block{
		slack.Section(fmt.Sprintf("<%s|*%s*>", m.Issue, m.Title)),
	}

	text := fmt.Sprintf("<https://github.com/%s|@%s> | issue date: %s | status: *%s*",
		m.Coordinator, m.Coordinator, m.IssueDate, m.State)
	if !m.MeetingDate.IsZero() {
		text += " | meeting date: " + m.MeetingDate.String()
	}
	blocks = append(blocks, slack.Context(text))

	if m.Recording != "" {
		blocks = append(blocks, slack.Context(fmt.Sprintf("<%s|Meeting recording>", m.Recording)))
	}

	for _, p := range m.Papers {
		title := p.Title
		if title == m.Title {
			title = "Paper"
		}
		blocks = append(blocks, slack.Context(fmt.Sprintf("<%s|%s>", p.Link, title)))
	}

	return slack.Message{Text: m.Title, Blocks: blocks}
}
