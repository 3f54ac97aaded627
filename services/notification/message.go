package notification

import "firebase.google.com/go/v4/messaging"

const clickAction = "FLUTTER_NOTIFICATION_CLICK"

// Push is a provider-neutral description of one push.
type Push struct {
	Token     string
	Title     string
	Body      string
	Data      map[string]string
	ChannelID string
	// Urgent raises the Android notification priority to max. The message priority stays "high".
	Urgent bool
}

// Build renders p in the shape the mobile clients expect.
func Build(p Push) *messaging.Message {
	data := make(map[string]string, len(p.Data)+1)
	for k, v := range p.Data {
		data[k] = v
	}
	data["click_action"] = clickAction

	priority := messaging.PriorityHigh
	if p.Urgent {
		priority = messaging.PriorityMax
	}
	badge := 1

	return &messaging.Message{
		Token: p.Token,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: p.ChannelID,
				Priority:  priority,
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: &badge,
				},
			},
		},
	}
}
