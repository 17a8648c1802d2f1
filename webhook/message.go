package webhook

import (
	"fmt"
	"strings"

	"sentryrelay/internal"
)

// ChatMessage is the Google Chat incoming-webhook payload: a plain text body
// plus an optional card rendering of the same alert.
type ChatMessage struct {
	Text    string `json:"text"`
	CardsV2 []Card `json:"cardsV2,omitempty"`
}

type Card struct {
	CardID string   `json:"cardId"`
	Card   CardBody `json:"card"`
}

type CardBody struct {
	Header   *CardHeader   `json:"header,omitempty"`
	Sections []CardSection `json:"sections,omitempty"`
}

type CardHeader struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

type CardSection struct {
	Widgets []Widget `json:"widgets"`
}

type Widget struct {
	DecoratedText *DecoratedText `json:"decoratedText,omitempty"`
	ButtonList    *ButtonList    `json:"buttonList,omitempty"`
}

type DecoratedText struct {
	TopLabel string `json:"topLabel,omitempty"`
	Text     string `json:"text"`
}

type ButtonList struct {
	Buttons []Button `json:"buttons"`
}

type Button struct {
	Text    string  `json:"text"`
	OnClick OnClick `json:"onClick"`
}

type OnClick struct {
	OpenLink OpenLink `json:"openLink"`
}

type OpenLink struct {
	URL string `json:"url"`
}

type alertDetail struct {
	label string
	value string
}

// BuildChatMessage maps a parsed alert to the chat payload. The mapping is
// pure: the same alert always yields the same message, and no field that is
// absent from the alert appears in the output.
func BuildChatMessage(alert internal.Alert) ChatMessage {
	details := []alertDetail{
		{"Environment", alert.Environment},
		{"Level", alert.Level},
		{"Culprit", alert.Culprit},
		{"ID", alert.ID},
		{"Platform", alert.Platform},
	}

	var text strings.Builder
	fmt.Fprintf(&text, "*%s: %s*", alert.Project, alert.Title)
	for _, detail := range details {
		if detail.value != "" {
			fmt.Fprintf(&text, "\n*%s*: %s", detail.label, detail.value)
		}
	}
	if alert.URL != "" {
		fmt.Fprintf(&text, "\n<%s|View in Sentry>", alert.URL)
	}

	return ChatMessage{
		Text:    text.String(),
		CardsV2: []Card{buildCard(alert, details)},
	}
}

func buildCard(alert internal.Alert, details []alertDetail) Card {
	var widgets []Widget
	for _, detail := range details {
		if detail.value != "" {
			widgets = append(widgets, Widget{
				DecoratedText: &DecoratedText{TopLabel: detail.label, Text: detail.value},
			})
		}
	}
	if alert.URL != "" {
		widgets = append(widgets, Widget{
			ButtonList: &ButtonList{Buttons: []Button{{
				Text:    "View in Sentry",
				OnClick: OnClick{OpenLink: OpenLink{URL: alert.URL}},
			}}},
		})
	}

	cardID := "sentry-alert"
	if alert.ID != "" {
		cardID = "sentry-alert-" + alert.ID
	}

	return Card{
		CardID: cardID,
		Card: CardBody{
			Header:   &CardHeader{Title: alert.Project, Subtitle: alert.Title},
			Sections: []CardSection{{Widgets: widgets}},
		},
	}
}
