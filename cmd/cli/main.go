// Command untilthen is a CLI client for the time-locked gift workflows:
// creating gifts, claiming them after release, and viewing attached content.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/chain/ethrpc"
	"github.com/untilthen/untilthen-go/internal/config"
	"github.com/untilthen/untilthen-go/internal/content/eciesenc"
	"github.com/untilthen/untilthen-go/internal/content/pinata"
	"github.com/untilthen/untilthen-go/internal/errs"
	"github.com/untilthen/untilthen-go/internal/logging"
	"github.com/untilthen/untilthen-go/internal/model"
	"github.com/untilthen/untilthen-go/internal/saga"
	"github.com/untilthen/untilthen-go/internal/wallet"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return nil, errors.New("stdin attachment not supported, pass a file path")
	}
	return os.ReadFile(p)
}

// parseUnit maps the user-facing unit names to the value units.
func parseUnit(s string) (model.YieldUnit, error) {
	switch strings.ToLower(s) {
	case "", "none", "eth":
		return model.YieldNone, nil
	case "native", "steth":
		return model.YieldNative, nil
	case "link", "alt":
		return model.YieldAltToken, nil
	default:
		return 0, fmt.Errorf("unknown unit %q (none|native|link)", s)
	}
}

// parseReleaseTime accepts RFC3339 or a unix-seconds integer.
func parseReleaseTime(s string) (time.Time, error) {
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(ts, 0), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("release time %q: want RFC3339 or unix seconds", s)
	}
	return t, nil
}

// consoleApprover prompts before every wallet operation, standing in for the
// wallet extension's confirmation dialog.
func consoleApprover(in *bufio.Reader) wallet.Approver {
	return func(_ context.Context, operation string) bool {
		fmt.Fprintf(os.Stderr, "approve %s? [y/N] ", operation)
		line, err := in.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

// app bundles the wired collaborators behind the subcommands.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	wallet *wallet.Wallet
	chain  *ethrpc.Client
	store  *pinata.Client
}

func newApp(ctx context.Context, cfgPath, keyHex string, yes bool) (*app, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.NoisyLogSubstrings)
	if err != nil {
		return nil, nil, err
	}

	if keyHex == "" {
		keyHex = os.Getenv("UNTILTHEN_PRIVATE_KEY")
	}
	if keyHex == "" {
		return nil, nil, errors.New("missing private key (-key or UNTILTHEN_PRIVATE_KEY)")
	}

	approve := consoleApprover(bufio.NewReader(os.Stdin))
	if yes {
		approve = func(context.Context, string) bool { return true }
	}
	w, err := wallet.FromHexKey(keyHex, approve, logger)
	if err != nil {
		return nil, nil, err
	}

	ec, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}

	addrs, err := cfg.ContractsFor(cfg.ChainID)
	if err != nil {
		ec.Close()
		return nil, nil, err
	}
	chainClient, err := ethrpc.New(ec, addrs, w.Address(), w.SignerFn(new(big.Int).SetUint64(cfg.ChainID)), logger)
	if err != nil {
		ec.Close()
		return nil, nil, err
	}

	store, err := pinata.New(cfg.Pinata, logger)
	if err != nil {
		ec.Close()
		return nil, nil, err
	}

	cleanup := func() {
		ec.Close()
		_ = logger.Sync()
	}
	return &app{cfg: cfg, log: logger, wallet: w, chain: chainClient, store: store}, cleanup, nil
}

func (a *app) creator() *saga.Creator {
	addrs, _ := a.cfg.ContractsFor(a.cfg.ChainID)
	return saga.NewCreator(a.wallet.Address(), addrs.UntilThen, a.chain, a.chain,
		eciesenc.New(), a.store, a.cfg.Fees, a.cfg.ConfirmWait, a.log)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: untilthen [flags] <command>

commands:
  version                      print version
  pubkey                       print this wallet's encryption public key
  quote    -amount -unit [-attach]
  create   -to -release -amount [-unit] [-file -to-pubkey]
  claim    -id
  view     -cid [-o file]
  gift     -id
  sent                         gifts created by this wallet
  received                     gifts addressed to this wallet
  claimed                      received gifts already redeemed

flags:
  -config path                 config file
  -key hex                     private key (or UNTILTHEN_PRIVATE_KEY)
  -yes                         approve wallet prompts non-interactively`)
	os.Exit(2)
}

func main() {
	// global flags
	cfgPath := flag.String("config", "", "config file (optional)")
	keyHex := flag.String("key", "", "hex private key")
	yes := flag.Bool("yes", false, "auto-approve wallet prompts")
	flag.Usage = usage
	flag.Parse()

	_ = godotenv.Load()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if cmd == "version" {
		fmt.Printf("untilthen %s (%s)\n", version, buildDate)
		return
	}

	a, cleanup, err := newApp(ctx, *cfgPath, *keyHex, *yes)
	if err != nil {
		fail(err)
	}
	defer cleanup()

	switch cmd {

	case "pubkey":
		fmt.Println(a.wallet.EncryptionPublicKey())

	case "quote":
		fs := flag.NewFlagSet("quote", flag.ExitOnError)
		amount := fs.String("amount", "", "amount in source units")
		unitName := fs.String("unit", "none", "value unit (none|native|link)")
		attach := fs.Bool("attach", false, "quote with an attachment")
		_ = fs.Parse(flag.Args()[1:])

		unit, err := parseUnit(*unitName)
		if err != nil {
			fail(err)
		}
		q, err := a.creator().Quote(*amount, *attach, unit)
		if err != nil {
			fail(err)
		}
		printJSON(q)

	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		to := fs.String("to", "", "receiver address")
		release := fs.String("release", "", "release time (RFC3339 or unix seconds)")
		amount := fs.String("amount", "", "amount in source units")
		unitName := fs.String("unit", "none", "value unit (none|native|link)")
		file := fs.String("file", "", "attachment path (optional)")
		toPubkey := fs.String("to-pubkey", "", "receiver encryption public key (with -file)")
		_ = fs.Parse(flag.Args()[1:])

		if *to == "" || *release == "" || *amount == "" {
			fmt.Fprintln(os.Stderr, "need -to, -release and -amount")
			os.Exit(1)
		}
		if !common.IsHexAddress(*to) {
			fail(fmt.Errorf("bad receiver address %q", *to))
		}
		releaseTime, err := parseReleaseTime(*release)
		if err != nil {
			fail(err)
		}
		unit, err := parseUnit(*unitName)
		if err != nil {
			fail(err)
		}

		input := saga.CreateInput{
			Receiver:    common.HexToAddress(*to),
			ReleaseTime: releaseTime,
			AmountText:  *amount,
			Unit:        unit,
		}
		if *file != "" {
			if *toPubkey == "" {
				fail(errors.New("attachments need -to-pubkey"))
			}
			data, err := readAll(*file)
			if err != nil {
				fail(err)
			}
			input.Attachment = data
			input.ReceiverPublicKey = *toPubkey
		}

		c := a.creator()
		s := c.NewSession(input, func(step saga.CreateStep) {
			fmt.Fprintln(os.Stderr, step.String()+"...")
		})
		giftID, err := c.Run(ctx, s)
		if errors.Is(err, errs.ErrConfirmationTimeout) {
			fmt.Fprintln(os.Stderr, "confirmation timed out, checking whether the gift landed...")
			giftID, err = c.Retry(ctx, s)
		}
		if err != nil {
			fail(err)
		}
		fmt.Println(giftID)

	case "claim":
		fs := flag.NewFlagSet("claim", flag.ExitOnError)
		id := fs.Uint64("id", 0, "gift id")
		_ = fs.Parse(flag.Args()[1:])

		r := saga.NewRedeemer(a.chain, a.chain, a.cfg.ConfirmWait, a.cfg.ContentWait, a.log)
		s := r.NewSession(*id, func(step saga.ClaimStep) {
			fmt.Fprintln(os.Stderr, step.String()+"...")
		})
		res, err := r.Run(ctx, s)
		if err != nil {
			if errors.Is(err, errs.ErrNotClaimable) {
				fail(fmt.Errorf("gift %d is not claimable yet", *id))
			}
			fail(err)
		}
		printJSON(res)

	case "view":
		fs := flag.NewFlagSet("view", flag.ExitOnError)
		cid := fs.String("cid", "", "public content identifier")
		out := fs.String("o", "", "output path (default stdout)")
		_ = fs.Parse(flag.Args()[1:])
		if *cid == "" {
			fmt.Fprintln(os.Stderr, "need -cid")
			os.Exit(1)
		}

		v := saga.NewViewer(a.store, a.wallet, a.log)
		plaintext, err := v.View(ctx, a.wallet.Address(), *cid)
		if err != nil {
			if errors.Is(err, errs.ErrDecryptionDeclined) {
				os.Exit(0) // user's choice, not an error
			}
			fail(err)
		}
		if *out != "" {
			if err := os.WriteFile(*out, plaintext, 0o600); err != nil {
				fail(err)
			}
		} else {
			_, _ = os.Stdout.Write(plaintext)
		}

	case "gift":
		fs := flag.NewFlagSet("gift", flag.ExitOnError)
		id := fs.Uint64("id", 0, "gift id")
		_ = fs.Parse(flag.Args()[1:])

		g, err := a.chain.GiftByID(ctx, *id)
		if err != nil {
			fail(err)
		}
		printJSON(g)

	case "sent":
		d := saga.NewDashboard(a.chain, a.chain)
		gifts, err := d.Sent(ctx, a.wallet.Address())
		if err != nil {
			fail(err)
		}
		printJSON(gifts)

	case "received":
		d := saga.NewDashboard(a.chain, a.chain)
		gifts, err := d.Received(ctx, a.wallet.Address())
		if err != nil {
			fail(err)
		}
		printJSON(gifts)

	case "claimed":
		d := saga.NewDashboard(a.chain, a.chain)
		gifts, err := d.Claimed(ctx, a.wallet.Address())
		if err != nil {
			fail(err)
		}
		printJSON(gifts)

	default:
		usage()
	}
}
