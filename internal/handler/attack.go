package handler

import (
	"github.com/lanewars/server/internal/metrics"
	"github.com/lanewars/server/internal/net"
	"github.com/lanewars/server/internal/net/packet"
)

// HandleAttack processes C_ATTACK. Combat is automatic, so the command is
// accepted and has no effect.
func HandleAttack(_ *net.Session, _ *packet.Reader, _ *Deps) {
	metrics.RecordCommand("attack", "applied")
}
