package specialist

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/ShayCichocki/relay/internal/protocol"
)

// WeatherPrompt is the question asked when no city can be found.
const WeatherPrompt = "Which city do you want the weather for?"

// WeatherCard describes the weather specialist.
func WeatherCard(baseURL, version string) protocol.AgentCard {
	return protocol.AgentCard{
		Name:        "Weather Agent",
		Description: "Reports current conditions for a city, asking for the city when the request omits one.",
		URL:         baseURL,
		Version:     version,
		Capabilities: protocol.AgentCapabilities{
			Streaming: true,
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills: []protocol.AgentSkill{{
			ID:          "weather",
			Name:        "Weather",
			Description: "Current conditions by city.",
			Tags:        []string{"weather", "forecast"},
			Examples:    []string{"What's the weather in Tokyo?", "Is it raining?"},
			InputModes:  []string{"text"},
			OutputModes: []string{"text"},
		}},
	}
}

// Weather answers conditions for a named city. A request without a city
// pauses on input-required; the resumed message is taken as the city name.
type Weather struct{}

// Handle implements Handler.
func (Weather) Handle(_ context.Context, turn *Turn) error {
	var city string
	if turn.Resumed {
		city = strings.Trim(strings.TrimSpace(turn.Text), ".!?")
	} else {
		city = extractCity(turn.Text)
	}
	if city == "" {
		turn.RequireInput(WeatherPrompt)
		return nil
	}

	report := conditionsFor(city)
	turn.Working(fmt.Sprintf("Looking up conditions for %s", city))
	turn.Complete(report, protocol.Citation{
		ID:        protocol.NewID(),
		Label:     "conditions lookup",
		Kind:      protocol.CitationKindAPI,
		Tool:      "weather",
		Note:      fmt.Sprintf("city %q", city),
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// extractCity finds a city after "in" or "for", e.g. "weather in Tokyo".
func extractCity(text string) string {
	words := strings.Fields(strings.Trim(text, ".!?"))
	for i, w := range words {
		lw := strings.ToLower(w)
		if (lw == "in" || lw == "for") && i+1 < len(words) {
			city := strings.Join(words[i+1:], " ")
			return strings.Trim(city, ".!?,")
		}
	}
	return ""
}

// conditionsFor derives a stable canned report from the city name, so the
// same city always gets the same answer.
func conditionsFor(city string) string {
	conditions := []string{"sunny", "partly cloudy", "overcast", "light rain", "windy"}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(city)))
	sum := h.Sum32()
	cond := conditions[sum%uint32(len(conditions))]
	temp := 8 + int(sum%24)
	return fmt.Sprintf("%s: %s, %dC", city, cond, temp)
}
