package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core/ratelimit"
)

// unthrottle clears the counter `policy` keeps for a user, or for a client IP.
func (cli *commandLine) unthrottle(ctx context.Context, policy ratelimit.Policy, userID, ip string) error {
	if _, err := policy.Config(); err != nil {
		return errors.Wrap(err, string(policy))
	}
	return cli.resetKey(ctx, policy.Key(ratelimit.Identifier(userID, ip)))
}

func (cli *commandLine) resetKey(ctx context.Context, key string) error {
	if cli.limiter == nil {
		return errors.New("unthrottle needs the redis rate limit store")
	}
	if err := cli.limiter.Reset(ctx, key); err != nil {
		return errors.Wrapf(err, "resetting %s", key)
	}
	fmt.Fprintf(cli.out, "%s cleared\n", key)
	return nil
}
