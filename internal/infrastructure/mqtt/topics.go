package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes.
const (
	// TopicPrefix is the root of every Inkwell topic.
	TopicPrefix = "inkwell"

	// TopicPrefixEvents is the base for domain events.
	TopicPrefixEvents = "inkwell/events"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "inkwell/system"
)

// Topics provides builders for Inkwell MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Event("comment", "delete")
//	// Returns: "inkwell/events/comment/delete"
type Topics struct{}

// Event returns the topic for a domain event.
//
// Example: inkwell/events/blog/create
func (Topics) Event(entity, action string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixEvents, segment(entity), segment(action))
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: inkwell/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllEvents returns a pattern matching every domain event.
//
// Pattern: inkwell/events/#
func (Topics) AllEvents() string {
	return TopicPrefixEvents + "/#"
}

// segment makes s safe as a single topic level.
func segment(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(s)
}

// validPublishTopic reports whether topic can be published to.
// Wildcards are only meaningful in subscriptions.
func validPublishTopic(topic string) bool {
	return topic != "" && !strings.ContainsAny(topic, "+#")
}
