package network

import (
	"context"
	"encoding/json"

	"github.com/gridt-app/gridt/internal/relation"
	"github.com/gridt-app/gridt/internal/signal"
)

// SubscriptionStore lists the active subscribers of a movement.
// Satisfied by the relation repository.
type SubscriptionStore interface {
	ActiveByMovement(ctx context.Context, kind relation.Kind, movementID int64) ([]*relation.Relation, error)
}

// Node is one subscriber in the network dump: the user id paired with
// their last signal in the movement, or null. Serialized as a
// two-element tuple.
type Node struct {
	UserID     int64
	LastSignal *signal.JSON
}

// MarshalJSON implements json.Marshaler.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{n.UserID, n.LastSignal})
}

// Edge is one active link in the network dump, serialized as a
// (follower, leader) tuple.
type Edge struct {
	FollowerID int64
	LeaderID   int64
}

// MarshalJSON implements json.Marshaler.
func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int64{e.FollowerID, e.LeaderID})
}

// NetworkData is a graph-tool friendly dump of a movement's peer
// network.
type NetworkData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Introspector renders movement networks for visualization.
type Introspector struct {
	links   Repository
	subs    SubscriptionStore
	signals SignalStore
}

// NewIntrospector creates the network introspector.
func NewIntrospector(links Repository, subs SubscriptionStore, signals SignalStore) *Introspector {
	return &Introspector{
		links:   links,
		subs:    subs,
		signals: signals,
	}
}

// GetNetworkData dumps every active subscriber and link of a movement.
func (i *Introspector) GetNetworkData(ctx context.Context, movementID int64) (*NetworkData, error) {
	subscriptions, err := i.subs.ActiveByMovement(ctx, relation.KindSubscription, movementID)
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		node := Node{UserID: subscription.UserID}
		last, err := i.signals.Last(ctx, subscription.UserID, movementID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			j := last.ToJSON()
			node.LastSignal = &j
		}
		nodes = append(nodes, node)
	}

	links, err := i.links.ActiveByMovement(ctx, movementID)
	if err != nil {
		return nil, err
	}
	edges := make([]Edge, 0, len(links))
	for _, link := range links {
		edges = append(edges, Edge{FollowerID: link.FollowerID, LeaderID: link.LeaderID})
	}

	return &NetworkData{Nodes: nodes, Edges: edges}, nil
}
