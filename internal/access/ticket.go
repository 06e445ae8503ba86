package access

import (
	"errors"
	"fmt"
)

// Ticket is the payload of the signed `doc` token embedded in callback and
// download URLs: the actor snapshot plus the document identity. The document
// server presents it back with every request, so the callback path can
// evaluate the edit gate without a round trip to the LMS.
type Ticket struct {
	Actor   Actor
	CMID    string
	GroupID int64
}

var ErrBadTicket = errors.New("malformed ticket claims")

// Claims flattens the ticket into token claims.
func (t *Ticket) Claims() map[string]interface{} {
	groups := make([]interface{}, 0, len(t.Actor.Groups))
	for _, g := range t.Actor.Groups {
		groups = append(groups, g)
	}
	caps := make([]interface{}, 0, len(t.Actor.Capabilities))
	for _, c := range t.Actor.Capabilities {
		caps = append(caps, c)
	}
	return map[string]interface{}{
		"userid":       t.Actor.ID,
		"name":         t.Actor.Name,
		"groups":       groups,
		"capabilities": caps,
		"cmid":         t.CMID,
		"groupid":      t.GroupID,
	}
}

// TicketFromClaims rebuilds a ticket from decoded token claims.
func TicketFromClaims(claims map[string]interface{}) (*Ticket, error) {
	actor, err := ActorFromClaims(claims)
	if err != nil {
		return nil, err
	}
	cmid, ok := claims["cmid"].(string)
	if !ok || cmid == "" {
		return nil, fmt.Errorf("%w: missing cmid", ErrBadTicket)
	}
	groupID, err := toInt64(claims["groupid"])
	if err != nil {
		return nil, fmt.Errorf("%w: bad groupid", ErrBadTicket)
	}
	return &Ticket{Actor: *actor, CMID: cmid, GroupID: groupID}, nil
}

// ActorFromClaims rebuilds an actor from decoded token claims. Launch tokens
// issued by the LMS carry the same shape minus the document identity, with
// the user id under `userid`.
func ActorFromClaims(claims map[string]interface{}) (*Actor, error) {
	id, ok := claims["userid"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: missing userid", ErrBadTicket)
	}
	a := &Actor{ID: id}
	if name, ok := claims["name"].(string); ok {
		a.Name = name
	}
	if raw, ok := claims["groups"].([]interface{}); ok {
		for _, v := range raw {
			g, err := toInt64(v)
			if err != nil {
				return nil, fmt.Errorf("%w: bad group entry", ErrBadTicket)
			}
			a.Groups = append(a.Groups, g)
		}
	}
	if raw, ok := claims["capabilities"].([]interface{}); ok {
		for _, v := range raw {
			c, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: bad capability entry", ErrBadTicket)
			}
			a.Capabilities = append(a.Capabilities, c)
		}
	}
	return a, nil
}

// toInt64 accepts the numeric shapes JSON decoding produces.
func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("not a number: %v", v)
}
