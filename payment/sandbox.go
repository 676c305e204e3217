package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SandboxGateway stands in for a real processor during development and
// tests. It approves everything with a generated reference unless
// Decline is set.
type SandboxGateway struct {
	Decline bool
	Log     logrus.FieldLogger
}

func (g *SandboxGateway) Initialize(ctx context.Context, req Request) {
	if g.Decline {
		if g.Log != nil {
			g.Log.WithField("amount", req.Amount.String()).Warn("sandbox gateway declining payment")
		}
		req.OnFailure(errors.New("sandbox: payment declined"))
		return
	}
	reference := "sandbox-" + uuid.NewString()
	if g.Log != nil {
		g.Log.WithField("reference", reference).Debug("sandbox gateway approved payment")
	}
	req.OnSuccess(reference)
}
