package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warplock/cmd/common"
	"github.com/warpdl/warplock/internal/config"
	"github.com/warpdl/warplock/internal/secret"
)

var (
	rotateSecret bool
	deleteSecret bool

	rpcSecretFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "rotate",
			Usage:       "replace the stored token with a new one",
			Destination: &rotateSecret,
		},
		cli.BoolFlag{
			Name:        "delete",
			Usage:       "remove the stored token, disabling the endpoint",
			Destination: &deleteSecret,
		},
	}
)

// secretStore is replaced in tests.
var secretStore = func(dir string) secret.Store {
	return secret.Default(dir)
}

func rpcSecret(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	dir, err := config.Dir()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "rpc-secret", "config_dir", err)
		return nil
	}
	s := secretStore(dir)
	switch {
	case deleteSecret:
		if err := s.Delete(); err != nil {
			cmdCommon.PrintRuntimeErr(ctx, "rpc-secret", "delete", err)
			return nil
		}
		fmt.Println("RPC secret deleted.")
		return nil
	case rotateSecret:
		token, err := secret.Rotate(s)
		if err != nil {
			cmdCommon.PrintRuntimeErr(ctx, "rpc-secret", "rotate", err)
			return nil
		}
		fmt.Println(token)
		fmt.Fprintln(os.Stderr, "Restart the daemon to use the new secret.")
		return nil
	}
	token, created, err := secret.GetOrCreate(s)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "rpc-secret", "get", err)
		return nil
	}
	fmt.Println(token)
	if created {
		fmt.Fprintln(os.Stderr, "A new secret was stored. Restart the daemon to enable the JSON-RPC endpoint.")
	}
	return nil
}
