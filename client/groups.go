package client

// CallGroup is the client's record of one call group: the users a
// voice chat under this name may include. The owning client is always
// an implicit member and never appears in OtherMembers.
type CallGroup struct {
	Name    string
	Host    string
	members []string
}

// NewCallGroup returns a group with no other members yet.
func NewCallGroup(name, host string) *CallGroup {
	return &CallGroup{Name: name, Host: host}
}

// AddMembers adds usernames, skipping duplicates and owner.
func (g *CallGroup) AddMembers(owner string, names []string) {
	for _, name := range names {
		if name == owner || g.Contains(name) {
			continue
		}
		g.members = append(g.members, name)
	}
}

// RemoveMember drops a username from the group.
func (g *CallGroup) RemoveMember(name string) {
	for i, member := range g.members {
		if member == name {
			g.members = append(g.members[:i], g.members[i+1:]...)
			return
		}
	}
}

// Contains reports whether name is a listed member.
func (g *CallGroup) Contains(name string) bool {
	for _, member := range g.members {
		if member == name {
			return true
		}
	}
	return false
}

// Empty reports whether no other members remain.
func (g *CallGroup) Empty() bool {
	return len(g.members) == 0
}

// OtherMembers returns a copy of the member list.
func (g *CallGroup) OtherMembers() []string {
	return append([]string{}, g.members...)
}

// ChatName identifies the group's chat.
func (g *CallGroup) ChatName() string {
	return g.Name
}

// ChatParticipants lists the other members as chat recipients.
func (g *CallGroup) ChatParticipants() []string {
	return g.OtherMembers()
}
