package httpfetch

import "math/rand/v2"

// UserAgentPool hands out a random user agent per request.
type UserAgentPool struct {
	agents []string
}

func NewUserAgentPool(agents []string) *UserAgentPool {
	return &UserAgentPool{agents: append([]string(nil), agents...)}
}

// Next returns a random user agent, or "" if the pool is empty.
func (p *UserAgentPool) Next() string {
	if len(p.agents) == 0 {
		return ""
	}
	return p.agents[rand.IntN(len(p.agents))]
}
