// Command pvss offers local operations around the PVSS aggregation layer:
// generating participant keypairs and simulating a full aggregation round.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/drand/kyber/util/random"
	"github.com/urfave/cli/v2"

	"github.com/optrand/pvss/aggregator"
	"github.com/optrand/pvss/crypto"
	"github.com/optrand/pvss/key"
	"github.com/optrand/pvss/log"
	"github.com/optrand/pvss/pvss"
)

// default output of the operational commands
var output io.Writer = os.Stdout

var folderFlag = &cli.StringFlag{
	Name:  "folder",
	Value: defaultFolder(),
	Usage: "Folder to keep all pvss cryptographic information, with absolute path.",
}

var schemeFlag = &cli.StringFlag{
	Name:  "scheme",
	Value: crypto.DefaultSchemeID,
	Usage: "Scheme id to generate material under.",
}

var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "If set, verbosity is at the debug level",
}

var participantsFlag = &cli.IntFlag{
	Name:  "participants",
	Value: 10,
	Usage: "Number of participants of the simulated round.",
}

var degreeFlag = &cli.IntFlag{
	Name:  "degree",
	Usage: "Degree of the secret polynomials. Defaults to half the participants.",
}

var dealersFlag = &cli.IntFlag{
	Name:  "dealers",
	Value: 3,
	Usage: "Number of participants acting as dealers in the simulated round.",
}

var appCommands = []*cli.Command{
	{
		Name:   "keygen",
		Usage:  "generate a longterm participant keypair and save it to the folder",
		Flags:  []cli.Flag{folderFlag, schemeFlag},
		Action: keygenCmd,
	},
	{
		Name:   "simulate",
		Usage:  "run a local aggregation round and print the transcript hash",
		Flags:  []cli.Flag{verboseFlag, schemeFlag, participantsFlag, degreeFlag, dealersFlag},
		Action: simulateCmd,
	},
	{
		Name:   "schemes",
		Usage:  "list the supported scheme ids",
		Action: schemesCmd,
	},
}

// CLI builds the pvss app
func CLI() *cli.App {
	app := cli.NewApp()
	app.Name = "pvss"
	app.Usage = "publicly verifiable secret sharing aggregation tool"
	app.Commands = appCommands
	return app
}

func main() {
	if err := CLI().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "pvss: %v\n", err)
		os.Exit(1)
	}
}

func keygenCmd(c *cli.Context) error {
	sch, err := crypto.SchemeFromName(c.String(schemeFlag.Name))
	if err != nil {
		return err
	}
	store, err := key.NewFileStore(c.String(folderFlag.Name))
	if err != nil {
		return err
	}
	pair := key.NewKeyPair(sch)
	if err := store.SaveKeyPair(pair); err != nil {
		return fmt.Errorf("saving keypair: %w", err)
	}
	fmt.Fprintf(output, "generated keypair under scheme %s\npublic key: %s\n",
		sch.Name, key.PointToString(pair.Public.Key))
	return nil
}

func schemesCmd(c *cli.Context) error {
	for _, id := range crypto.ListSchemes() {
		fmt.Fprintln(output, id)
	}
	return nil
}

func simulateCmd(c *cli.Context) error {
	level := log.InfoLevel
	if c.Bool(verboseFlag.Name) {
		level = log.DebugLevel
	}
	l := log.New(nil, level, false)

	sch, err := crypto.SchemeFromName(c.String(schemeFlag.Name))
	if err != nil {
		return err
	}

	n := c.Int(participantsFlag.Name)
	degree := c.Int(degreeFlag.Name)
	if degree == 0 {
		degree = key.MinimumT(n) - 1
	}
	dealers := c.Int(dealersFlag.Name)
	if dealers > n {
		return fmt.Errorf("cannot have %d dealers among %d participants", dealers, n)
	}

	stream := random.New()

	pairs := make([]*key.Pair, n)
	ids := make([]*key.Identity, n)
	for i := range pairs {
		pairs[i] = key.NewKeyPair(sch)
		ids[i] = pairs[i].Public
	}
	roster := key.NewRoster(ids, degree)

	cfg, err := pvss.NewConfig(sch, pvss.NewSRS(sch, stream), degree, n)
	if err != nil {
		return err
	}

	agg, err := aggregator.New(l, cfg, roster)
	if err != nil {
		return err
	}

	points := roster.Points()
	for i := 0; i < dealers; i++ {
		node := roster.Nodes[i]
		dealer, err := pvss.NewDealer(cfg, node.Index, pairByIdentity(pairs, node.Identity))
		if err != nil {
			return err
		}
		sh, err := dealer.Deal(stream, points)
		if err != nil {
			return err
		}
		if err := agg.ProcessShare(sh); err != nil {
			return err
		}
		l.Infow("share folded", "dealer", node.Index)
	}

	transcript := agg.Transcript()
	fmt.Fprintf(output, "round complete: %d contributions over %d participants\n",
		len(transcript.Contributions), n)
	fmt.Fprintf(output, "transcript hash: %s\n", hex.EncodeToString(transcript.Hash(sch)))
	return nil
}

func pairByIdentity(pairs []*key.Pair, id *key.Identity) *key.Pair {
	for _, p := range pairs {
		if p.Public.Equal(id) {
			return p
		}
	}
	return nil
}

func defaultFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pvss"
	}
	return path.Join(home, ".pvss")
}
