// Package cluster models the simulated component registry of a messaging
// cluster (brokers, controllers, connectors, schema-registry nodes) and the
// pure health derivation over it. Values are treated as immutable: every
// mutation returns a new State and never edits slices that a previous State
// may still share.
package cluster

import (
	"fmt"
	"strings"
)

// Status is the run state of a single component.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Toggled returns the opposite status.
func (s Status) Toggled() Status {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Group names one of the four component collections.
type Group string

const (
	GroupBrokers        Group = "brokers"
	GroupControllers    Group = "controllers"
	GroupConnectors     Group = "connectors"
	GroupSchemaRegistry Group = "schemaRegistry"
)

// Groups lists every component group in display order.
var Groups = []Group{GroupBrokers, GroupControllers, GroupConnectors, GroupSchemaRegistry}

// ParseGroup resolves user input ("broker", "schema-registry", "sr", ...) to a Group.
func ParseGroup(raw string) (Group, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "brokers", "broker", "b":
		return GroupBrokers, true
	case "controllers", "controller", "c":
		return GroupControllers, true
	case "connectors", "connector", "k":
		return GroupConnectors, true
	case "schemaregistry", "schema-registry", "schema_registry", "registry", "sr":
		return GroupSchemaRegistry, true
	default:
		return "", false
	}
}

// Label is the singular human name used in alerts and notices.
func (g Group) Label() string {
	switch g {
	case GroupBrokers:
		return "Broker"
	case GroupControllers:
		return "Controller"
	case GroupConnectors:
		return "Connector"
	case GroupSchemaRegistry:
		return "Schema Registry"
	default:
		return "Component"
	}
}

// ConnectorType classifies a connector.
type ConnectorType string

const (
	ConnectorSink      ConnectorType = "sink"
	ConnectorSource    ConnectorType = "source"
	ConnectorProcessor ConnectorType = "processor"
)

// RegistryMode is the replication role of a schema-registry node.
type RegistryMode string

const (
	ModePrimary RegistryMode = "primary"
	ModeBackup  RegistryMode = "backup"
)

// Broker is a message broker record.
type Broker struct {
	ID     int    `json:"id" yaml:"id"`
	Status Status `json:"status" yaml:"status"`
	Health int    `json:"health" yaml:"health"`
}

// Controller is a cluster controller record. At steady state exactly one
// controller is leader; see Toggle for how leadership follows status changes.
type Controller struct {
	ID       int    `json:"id" yaml:"id"`
	Status   Status `json:"status" yaml:"status"`
	IsLeader bool   `json:"isLeader" yaml:"is_leader"`
}

// Connector is a connect-worker record.
type Connector struct {
	ID     int           `json:"id" yaml:"id"`
	Name   string        `json:"name" yaml:"name"`
	Status Status        `json:"status" yaml:"status"`
	Type   ConnectorType `json:"type" yaml:"type"`
}

// SchemaRegistryNode is a schema-registry replica record.
type SchemaRegistryNode struct {
	ID     int          `json:"id" yaml:"id"`
	Status Status       `json:"status" yaml:"status"`
	Mode   RegistryMode `json:"mode" yaml:"mode"`
}

// State is the full component registry. Group membership is fixed for a
// session; only statuses and group-specific fields change.
type State struct {
	Brokers        []Broker             `json:"brokers" yaml:"brokers"`
	Controllers    []Controller         `json:"controllers" yaml:"controllers"`
	Connectors     []Connector          `json:"connectors" yaml:"connectors"`
	SchemaRegistry []SchemaRegistryNode `json:"schemaRegistry" yaml:"schema_registry"`
}

// SeedState returns the built-in registry used when no data source is
// reachable: three healthy brokers, three controllers led by controller 1,
// two connectors and a primary/backup schema-registry pair.
func SeedState() State {
	return State{
		Brokers: []Broker{
			{ID: 1, Status: StatusActive, Health: 100},
			{ID: 2, Status: StatusActive, Health: 100},
			{ID: 3, Status: StatusActive, Health: 100},
		},
		Controllers: []Controller{
			{ID: 1, Status: StatusActive, IsLeader: true},
			{ID: 2, Status: StatusActive},
			{ID: 3, Status: StatusActive},
		},
		Connectors: []Connector{
			{ID: 1, Name: "mysql-sink", Status: StatusActive, Type: ConnectorSink},
			{ID: 2, Name: "stream-processor", Status: StatusActive, Type: ConnectorProcessor},
		},
		SchemaRegistry: []SchemaRegistryNode{
			{ID: 1, Status: StatusActive, Mode: ModePrimary},
			{ID: 2, Status: StatusActive, Mode: ModeBackup},
		},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return State{
		Brokers:        append([]Broker(nil), s.Brokers...),
		Controllers:    append([]Controller(nil), s.Controllers...),
		Connectors:     append([]Connector(nil), s.Connectors...),
		SchemaRegistry: append([]SchemaRegistryNode(nil), s.SchemaRegistry...),
	}
}

// Len returns the number of records in group g.
func (s State) Len(g Group) (int, bool) {
	switch g {
	case GroupBrokers:
		return len(s.Brokers), true
	case GroupControllers:
		return len(s.Controllers), true
	case GroupConnectors:
		return len(s.Connectors), true
	case GroupSchemaRegistry:
		return len(s.SchemaRegistry), true
	default:
		return 0, false
	}
}

// Statuses returns the statuses of group g in index order.
func (s State) Statuses(g Group) []Status {
	var out []Status
	switch g {
	case GroupBrokers:
		for _, b := range s.Brokers {
			out = append(out, b.Status)
		}
	case GroupControllers:
		for _, c := range s.Controllers {
			out = append(out, c.Status)
		}
	case GroupConnectors:
		for _, c := range s.Connectors {
			out = append(out, c.Status)
		}
	case GroupSchemaRegistry:
		for _, n := range s.SchemaRegistry {
			out = append(out, n.Status)
		}
	}
	return out
}

// Leader returns the ID of the first leading controller, or 0.
func (s State) Leader() int {
	for _, c := range s.Controllers {
		if c.IsLeader {
			return c.ID
		}
	}
	return 0
}

// Validate checks the registry loaded from an external source.
func Validate(s State) error {
	if len(s.Brokers)+len(s.Controllers)+len(s.Connectors)+len(s.SchemaRegistry) == 0 {
		return fmt.Errorf("registry has no components")
	}
	seen := make(map[int]struct{})
	reset := func() {
		for k := range seen {
			delete(seen, k)
		}
	}
	check := func(g Group, id int, status Status) error {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%s: duplicate id %d", g, id)
		}
		seen[id] = struct{}{}
		if !status.Valid() {
			return fmt.Errorf("%s %d: invalid status %q", g, id, status)
		}
		return nil
	}
	for _, b := range s.Brokers {
		if err := check(GroupBrokers, b.ID, b.Status); err != nil {
			return err
		}
		if b.Health < 0 || b.Health > 100 {
			return fmt.Errorf("%s %d: health %d out of range 0-100", GroupBrokers, b.ID, b.Health)
		}
	}
	reset()
	for _, c := range s.Controllers {
		if err := check(GroupControllers, c.ID, c.Status); err != nil {
			return err
		}
	}
	reset()
	for _, c := range s.Connectors {
		if err := check(GroupConnectors, c.ID, c.Status); err != nil {
			return err
		}
		switch c.Type {
		case ConnectorSink, ConnectorSource, ConnectorProcessor:
		default:
			return fmt.Errorf("%s %d: invalid type %q", GroupConnectors, c.ID, c.Type)
		}
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%s %d: name is empty", GroupConnectors, c.ID)
		}
	}
	reset()
	for _, n := range s.SchemaRegistry {
		if err := check(GroupSchemaRegistry, n.ID, n.Status); err != nil {
			return err
		}
		if n.Mode != ModePrimary && n.Mode != ModeBackup {
			return fmt.Errorf("%s %d: invalid mode %q", GroupSchemaRegistry, n.ID, n.Mode)
		}
	}
	return nil
}
