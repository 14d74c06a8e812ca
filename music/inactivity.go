package music

import (
	"errors"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/minuet/sys"
)

// InactivityMonitor leaves voice when the bot has been alone in its channel
// for too long, or idle with an empty queue past the grace period.
type InactivityMonitor struct {
	c            *Controller
	aloneTimeout time.Duration
	idleGrace    time.Duration
}

// OnOccupancy records how many non-bot members share the bot's channel.
func (m *InactivityMonitor) OnOccupancy(guildID snowflake.ID, humans int) {
	st, ok := m.c.guilds.Lookup(guildID)
	if !ok {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.session == nil {
		return
	}
	st.humans = humans

	if humans > 0 {
		if st.aloneTimer != nil {
			st.aloneTimer.t.Stop()
			st.aloneTimer = nil
			sys.LogMusic(sys.MsgMusicInactivityCleared, guildID, ReasonAlone)
		}
		return
	}
	if st.aloneTimer != nil || m.aloneTimeout <= 0 {
		return
	}
	armed := &armedTimer{}
	armed.t = m.c.afterFunc(m.aloneTimeout, func() {
		m.expire(st, armed, ReasonAlone)
	})
	st.aloneTimer = armed
	sys.LogMusic(sys.MsgMusicInactivityArmed, guildID, ReasonAlone, m.aloneTimeout)
}

func (m *InactivityMonitor) armIdle(st *GuildState) {
	st.mu.Lock()
	defer st.mu.Unlock()
	m.armIdleLocked(st)
}

func (m *InactivityMonitor) armIdleLocked(st *GuildState) {
	if st.session == nil || st.idleTimer != nil || m.idleGrace <= 0 {
		return
	}
	armed := &armedTimer{}
	armed.t = m.c.afterFunc(m.idleGrace, func() {
		m.expire(st, armed, ReasonIdle)
	})
	st.idleTimer = armed
	sys.LogMusic(sys.MsgMusicInactivityArmed, st.GuildID, ReasonIdle, m.idleGrace)
}

func (m *InactivityMonitor) cancelIdleLocked(st *GuildState) {
	if st.idleTimer != nil {
		st.idleTimer.t.Stop()
		st.idleTimer = nil
		sys.LogMusic(sys.MsgMusicInactivityCleared, st.GuildID, ReasonIdle)
	}
}

func (m *InactivityMonitor) stopLocked(st *GuildState) {
	if st.aloneTimer != nil {
		st.aloneTimer.t.Stop()
		st.aloneTimer = nil
	}
	if st.idleTimer != nil {
		st.idleTimer.t.Stop()
		st.idleTimer = nil
	}
}

// expire re-checks the condition under the guild lock before leaving, so a
// member rejoining or a new track starting wins over a late timer.
func (m *InactivityMonitor) expire(st *GuildState, armed *armedTimer, reason DisconnectReason) {
	err := m.c.disconnect(m.c.ctx, st, reason, func(st *GuildState) bool {
		switch reason {
		case ReasonAlone:
			if st.aloneTimer != armed {
				return true
			}
			st.aloneTimer = nil
			return st.humans > 0
		default:
			if st.idleTimer != armed {
				return true
			}
			st.idleTimer = nil
			return st.current != nil || len(st.queue) > 0 || st.restore != nil
		}
	})
	if err != nil && !errors.Is(err, errStillNeeded) && !errors.Is(err, ErrNotConnected) {
		sys.LogMusicWarn(sys.MsgMusicConnectFail, st.GuildID, err)
	}
}
