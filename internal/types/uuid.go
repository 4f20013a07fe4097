package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

const (
	UUID_PREFIX_USER      = "user"
	UUID_PREFIX_CUSTOMER  = "cust"
	UUID_PREFIX_INVOICE   = "inv"
	UUID_PREFIX_LINE_ITEM = "li"
	UUID_PREFIX_PAYMENT   = "pay"
	UUID_PREFIX_HISTORY   = "hist"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex inv_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	sidOnce      sync.Once
)

func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateInvoiceNumber returns a human-readable invoice number such as
// INV-8QK2ZC1A. Uniqueness per owner is enforced by the invoices table, the
// repository retries on the rare collision.
func GenerateInvoiceNumber() string {
	sidOnce.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		return ""
	}
	id = strings.ReplaceAll(id, "-", "")
	id = strings.ReplaceAll(id, "_", "")
	if len(id) > 8 {
		id = id[:8]
	}

	return "INV-" + strings.ToUpper(id)
}
