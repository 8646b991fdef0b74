package machine

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"time"

	mdns "github.com/miekg/dns"
)

// SSHProber checks liveness by running a no-op command over SSH in batch
// mode. When a resolver is configured and the host is a name rather than an
// IP literal, an A lookup runs first so an unresolvable host fails fast
// without spawning a subprocess.
type SSHProber struct {
	Resolver string        // "addr:port" of the DNS resolver; empty skips the pre-check
	Timeout  time.Duration // overall probe bound; DefaultProbeTimeout when zero
}

func (p *SSHProber) Probe(ctx context.Context, m Machine) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if p.Resolver != "" && net.ParseIP(m.Host) == nil {
		if !p.resolves(m.Host) {
			return false
		}
	}

	connectTimeout := int(timeout / time.Second)
	if connectTimeout < 1 {
		connectTimeout = 1
	}

	args := []string{
		"-o", "BatchMode=yes",
		"-o", fmt.Sprintf("ConnectTimeout=%d", connectTimeout),
		"-o", "StrictHostKeyChecking=accept-new",
	}
	if m.Port != 0 {
		args = append(args, "-p", fmt.Sprintf("%d", m.Port))
	}
	args = append(args, m.Dest(), "true")

	return exec.CommandContext(ctx, "ssh", args...).Run() == nil
}

// resolves asks the configured resolver for an A record.
func (p *SSHProber) resolves(host string) bool {
	c := &mdns.Client{Timeout: 2 * time.Second}
	msg := new(mdns.Msg)
	msg.SetQuestion(mdns.Fqdn(host), mdns.TypeA)

	resp, _, err := c.Exchange(msg, p.Resolver)
	if err != nil || resp == nil {
		return false
	}
	return resp.Rcode == mdns.RcodeSuccess && len(resp.Answer) > 0
}
