package team

import "fmt"

// Principal is the authenticated team identity resolved by the platform's
// auth layer before any auction operation runs.
type Principal struct {
	TeamID string
	Season string
}

func (p Principal) Validate() error {
	if p.TeamID == "" {
		return fmt.Errorf("principal team id is required")
	}
	if p.Season == "" {
		return fmt.Errorf("principal season is required")
	}

	return nil
}
