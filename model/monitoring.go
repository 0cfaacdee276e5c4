package model

// Health is the outcome of a connectivity and credential probe.
type Health struct {
	Healthy    bool   `json:"healthy"`
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	// Reason is set when Healthy is false.
	Reason string `json:"reason,omitempty"`
}

// Version describes the deployed API build.
type Version struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

type NetworkIcon struct {
	Web3Icons map[string]any `json:"web3Icons"`
}

// Network is an entry of the networks registry.
type Network struct {
	ID          string      `json:"id"`
	FullName    string      `json:"fullName"`
	ShortName   string      `json:"shortName"`
	CAIP2ID     string      `json:"caip2Id"`
	NetworkType string      `json:"networkType"`
	Icon        NetworkIcon `json:"icon"`
	Alias       []string    `json:"alias"`
}
