package bot

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// settingsSession is one open /settings menu. It expires after a period
// without interaction; on expiry its components are disabled.
type settingsSession struct {
	id          string
	guildID     string
	interaction *discordgo.Interaction

	// guarded by sessions.mu
	view       view
	components []discordgo.MessageComponent
	timer      *time.Timer
	gen        uint64 // bumped on every touch; a timer only expires its own generation
}

type sessions struct {
	timeout  time.Duration
	onExpire func(*settingsSession)

	mu sync.Mutex
	m  map[string]*settingsSession
}

func newSessions(timeout time.Duration, onExpire func(*settingsSession)) *sessions {
	return &sessions{timeout: timeout, onExpire: onExpire, m: make(map[string]*settingsSession)}
}

// open registers a session keyed by the id of the command interaction.
func (s *sessions) open(in *discordgo.Interaction) *settingsSession {
	sess := &settingsSession{id: in.ID, guildID: in.GuildID, interaction: in, view: viewMenu}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sess.id] = sess
	s.arm(sess)
	return sess
}

// arm starts the expiry timer for the session's current generation. The
// caller holds s.mu.
func (s *sessions) arm(sess *settingsSession) {
	gen := sess.gen
	sess.timer = time.AfterFunc(s.timeout, func() { s.expire(sess.id, gen) })
}

// touch returns the session and restarts its expiry timer.
func (s *sessions) touch(id string) (*settingsSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return nil, false
	}
	sess.timer.Stop()
	sess.gen++
	s.arm(sess)
	return sess, true
}

// show records what the session currently displays.
func (s *sessions) show(sess *settingsSession, v view, components []discordgo.MessageComponent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.view = v
	sess.components = components
}

func (s *sessions) shown(sess *settingsSession) []discordgo.MessageComponent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sess.components
}

func (s *sessions) current(sess *settingsSession) view {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sess.view
}

// expire drops the session unless it was touched after the timer for gen
// was armed.
func (s *sessions) expire(id string, gen uint64) {
	s.mu.Lock()
	sess, ok := s.m[id]
	if ok && sess.gen != gen {
		ok = false
	}
	if ok {
		delete(s.m, id)
	}
	s.mu.Unlock()

	if ok && s.onExpire != nil {
		s.onExpire(sess)
	}
}

// closeAll stops every timer without running the expiry callback.
func (s *sessions) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.m {
		sess.timer.Stop()
		delete(s.m, id)
	}
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
