package mqtt

import "fmt"

// Topic prefixes for the onair hierarchy.
const (
	// TopicPrefix is the base for all onaird topics.
	TopicPrefix = "onair"

	// TopicPrefixState is the base for detection/light state topics.
	TopicPrefixState = "onair/state"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "onair/system"
)

// Topics provides builders for onaird MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// SourceState returns the topic for a detection source's state.
//
// Example: onair/state/camera
func (Topics) SourceState(source string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixState, source)
}

// LightState returns the topic for the light's confirmed state.
//
// Example: onair/state/light
func (Topics) LightState() string {
	return fmt.Sprintf("%s/light", TopicPrefixState)
}

// SystemStatus returns the daemon online/offline status topic.
// Also used as the Last Will topic.
//
// Example: onair/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
