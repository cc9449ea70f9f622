package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"

	"nftledger/ledger"
	"nftledger/registry"
	"nftledger/store"

	"github.com/MixinNetwork/mixin/logger"
)

func main() {
	ctx := context.Background()

	bp := flag.String("d", "~/.nftledger/data", "database directory path")
	cp := flag.String("c", "~/.nftledger/config.toml", "configuration file path")
	flag.Parse()

	if strings.HasPrefix(*cp, "~/") {
		usr, _ := user.Current()
		*cp = filepath.Join(usr.HomeDir, (*cp)[2:])
	}
	conf, err := ledger.Setup(*cp)
	if err != nil {
		panic(err)
	}

	if strings.HasPrefix(*bp, "~/") {
		usr, _ := user.Current()
		*bp = filepath.Join(usr.HomeDir, (*bp)[2:])
	}
	db, err := store.OpenBadger(ctx, *bp)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	clock, err := ledger.NewClock(db)
	if err != nil {
		panic(err)
	}

	existing, err := db.ReadCollection()
	if err != nil {
		panic(err)
	}
	genesis, err := conf.Genesis()
	if err != nil {
		panic(err)
	}
	lgr, err := ledger.OpenLedger(db, clock, genesis)
	if err != nil {
		panic(err)
	}
	if existing == nil && conf.Registry.Deployer != "" {
		instance, err := registry.Record(db, conf.Registry.Deployer, genesis.Name, genesis.Symbol)
		if err != nil {
			panic(err)
		}
		logger.Printf("registry recorded instance %s for %s\n", instance.ID, instance.Deployer)
	}

	c, err := lgr.CollectionMetadata()
	if err != nil {
		panic(err)
	}
	count, err := db.CountTokens()
	if err != nil {
		panic(err)
	}
	logger.Printf("ledger %s (%s) tokens %d supply %d/%d transactions %d\n",
		c.Name, c.Symbol, count, c.TotalSupply, c.SupplyCap, c.TxCount)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
