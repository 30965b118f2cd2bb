package mime

// AssignThreads links messages that reference each other into threads and
// sets every envelope's ThreadID to the earliest-read message ID of its
// thread. Messages with no links keep their own ID.
func AssignThreads(msgs []*Message) {
	parent := make(map[string]string)

	var find func(id string) string
	find = func(id string) string {
		p, ok := parent[id]
		if !ok || p == id {
			parent[id] = id
			return id
		}
		root := find(p)
		parent[id] = root
		return root
	}

	// order records first sight so the root is stable across runs
	order := make(map[string]int)
	see := func(id string) {
		if _, ok := order[id]; !ok {
			order[id] = len(order)
		}
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if order[rb] < order[ra] {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	for _, msg := range msgs {
		see(msg.Raw.Envelope.ID)
	}
	for _, msg := range msgs {
		self := msg.Raw.Envelope.ID
		for _, ref := range msg.References {
			see(ref)
			union(self, ref)
		}
		for _, ref := range msg.InReplyTo {
			see(ref)
			union(self, ref)
		}
	}

	for _, msg := range msgs {
		msg.Raw.Envelope.ThreadID = find(msg.Raw.Envelope.ID)
	}
}
