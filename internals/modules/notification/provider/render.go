package provider

import "fmt"

func summary(e Event) string {
	switch e.Kind {
	case EventIncidentCreated:
		return fmt.Sprintf("%s is down (%s)", e.MonitorName, e.Url)
	case EventIncidentResolved:
		return fmt.Sprintf("%s recovered (%s)", e.MonitorName, e.Url)
	case EventMonitorDegraded:
		return fmt.Sprintf("%s is degraded (%s)", e.MonitorName, e.Url)
	default:
		return fmt.Sprintf("%s changed status to %s (%s)", e.MonitorName, e.Status, e.Url)
	}
}

func testEvent() Event {
	return Event{
		Kind:        EventIncidentCreated,
		MonitorName: "Test monitor",
		Url:         "https://example.com",
		Status:      "error",
	}
}
