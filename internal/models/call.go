package models

import "fmt"

// ServiceCall is an outbound Home Assistant service invocation.
type ServiceCall struct {
	Domain  string         `json:"domain"`
	Service string         `json:"service"`
	Data    map[string]any `json:"data"`
}

// EntityID returns the target entity of the call, if any.
func (c ServiceCall) EntityID() string {
	id, _ := c.Data["entity_id"].(string)
	return id
}

func (c ServiceCall) String() string {
	return fmt.Sprintf("%s.%s(%s)", c.Domain, c.Service, c.EntityID())
}
