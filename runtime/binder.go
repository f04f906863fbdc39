package runtime

import (
	"github.com/txpipe/balius/capability/driver"
	"github.com/txpipe/balius/capability/httpcap"
	"github.com/txpipe/balius/capability/kv"
	"github.com/txpipe/balius/capability/ledger"
	"github.com/txpipe/balius/capability/logger"
	"github.com/txpipe/balius/capability/signer"
	"github.com/txpipe/balius/capability/submit"
	"github.com/txpipe/balius/sandboxhost"
)

// capabilityNames are the import names a worker's sandbox binds against;
// the driver capability is always bound, the rest depend on what the
// Builder configured (spec.md §4.F: "Slots omitted default to a safe
// no-op").
const (
	capDriver  = "driver"
	capKV      = "kv"
	capLogger  = "logger"
	capSigner  = "signer"
	capLedger  = "ledger"
	capSubmit  = "submit"
	capHTTP    = "http"
)

// binder implements sandboxhost.ImportBinder for a single worker,
// carrying exactly the capability hosts that worker's Runtime was built
// with (each already bound to this worker's id).
type binder struct {
	driver *driver.Host
	kv     *kv.Host
	logger *logger.Host
	signer *signer.Host
	ledger *ledger.Host
	submit *submit.Host
	http   *httpcap.Host
}

var _ sandboxhost.ImportBinder = (*binder)(nil)

func (b *binder) Bind(name string) interface{} {
	switch name {
	case capDriver:
		return b.driver
	case capKV:
		if b.kv == nil {
			return nil
		}
		return b.kv
	case capLogger:
		if b.logger == nil {
			return nil
		}
		return b.logger
	case capSigner:
		if b.signer == nil {
			return nil
		}
		return b.signer
	case capLedger:
		if b.ledger == nil {
			return nil
		}
		return b.ledger
	case capSubmit:
		if b.submit == nil {
			return nil
		}
		return b.submit
	case capHTTP:
		if b.http == nil {
			return nil
		}
		return b.http
	default:
		return nil
	}
}
