// Package models holds the request and response bodies of the HTTP API.
package models

import "github.com/smazurov/nodepower/internal/version"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionResponse struct {
	Body version.Info
}

// Node power models

// NodeState is the level driven on one node after a request.
type NodeState struct {
	Node int  `json:"node" example:"1" doc:"Node number (1-4)"`
	On   bool `json:"on" example:"true" doc:"Whether the node is now powered"`
}

type PowerData struct {
	State int         `json:"state" example:"5" doc:"Requested power state, bit n for node n+1"`
	Mask  int         `json:"mask" example:"15" doc:"Nodes that were changed, bit n for node n+1"`
	Nodes []NodeState `json:"nodes" doc:"Nodes changed by the request, lowest first"`
}

type PowerRequest struct {
	Body struct {
		State int `json:"state" minimum:"0" maximum:"15" example:"5" doc:"Desired power state, bit n for node n+1"`
		Mask  int `json:"mask" minimum:"0" maximum:"15" example:"15" doc:"Nodes to change, bit n for node n+1"`
	}
}

type PowerResponse struct {
	Body PowerData
}

type NodePowerRequest struct {
	Node int `path:"node" minimum:"1" maximum:"4" example:"2" doc:"Node number (1-4)"`
	Body struct {
		On bool `json:"on" example:"true" doc:"Power the node on or off"`
	}
}

type NodeResetRequest struct {
	Node int `path:"node" minimum:"1" maximum:"4" example:"2" doc:"Node number (1-4)"`
}

type NodeResetData struct {
	Node   int    `json:"node" example:"2" doc:"Node number (1-4)"`
	Action string `json:"action" example:"reset" doc:"Action performed"`
}

type NodeResetResponse struct {
	Body NodeResetData
}

// LED models

type LEDListData struct {
	Available []string `json:"available" doc:"Indicator names"`
}

type LEDListResponse struct {
	Body LEDListData
}

type LEDSetRequest struct {
	Name string `path:"name" example:"status" doc:"Indicator name"`
	Body struct {
		On bool `json:"on" example:"true" doc:"Light the indicator"`
	}
}

type LEDData struct {
	Name string `json:"name" example:"status" doc:"Indicator name"`
	On   bool   `json:"on" example:"true" doc:"Whether the indicator is lit"`
}

type LEDResponse struct {
	Body LEDData
}
