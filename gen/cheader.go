package gen

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wippyai/bridge-runtime/metadata"
)

func init() {
	Register(CHeader{})
}

// CHeader emits a C99 header declaring every boundary entry of a registry:
// one extern per synchronous export, the invoke/poll/release triple per
// asynchronous export, and the shared object handle pair when the registry
// exports object types. Arguments cross as one encoded buffer; results and
// errors cross through bridge_value_t and the status cell.
type CHeader struct{}

func (CHeader) Name() string    { return "c-header" }
func (CHeader) FileExt() string { return ".h" }

const cHeaderPrelude = `/* Generated bridge bindings. Do not edit. */
#ifndef BRIDGE_BINDINGS_H
#define BRIDGE_BINDINGS_H

#include <stdint.h>

#ifdef __cplusplus
extern "C" {
#endif

/* Status codes reported by every boundary entry. */
enum {
    BRIDGE_STATUS_SUCCESS = 0,
    BRIDGE_STATUS_ERROR   = 1,
    BRIDGE_STATUS_FAULT   = 2,
};

/* One boundary value: a scalar slot, an encoded byte buffer, or an object
 * handle, discriminated by shape. */
typedef struct bridge_value {
    uint8_t  shape; /* 0 scalar, 1 buffer, 2 handle */
    uint64_t scalar;
    uint64_t handle;
    const uint8_t *buf;
    uint32_t buf_len;
} bridge_value_t;

/* Out-of-band status cell written by every entry. On BRIDGE_STATUS_ERROR
 * the declared error value is in error; on BRIDGE_STATUS_FAULT the
 * diagnostic UTF-8 string is in fault/fault_len. */
typedef struct bridge_call_status {
    int8_t code;
    bridge_value_t error;
    const uint8_t *fault;
    uint32_t fault_len;
} bridge_call_status_t;

/* Completion callback registered through a poll entry. Invoked exactly
 * once when the computation finishes, unless superseded by a later poll
 * or discarded by release. */
typedef void (*bridge_completion_fn)(void *env);
`

const cHeaderEpilogue = `
#ifdef __cplusplus
} /* extern "C" */
#endif

#endif /* BRIDGE_BINDINGS_H */
`

// declTemplates maps each entry role to its extern declaration. Emission
// is table-driven: a record contributes one row (sync) or three (async).
var declTemplates = map[string]string{
	"sync":    "extern void %s(const uint8_t *args, uint32_t args_len, bridge_value_t *out, bridge_call_status_t *status);",
	"invoke":  "extern uint64_t %s(const uint8_t *args, uint32_t args_len, bridge_call_status_t *status);",
	"poll":    "extern uint8_t %s(uint64_t handle, bridge_completion_fn fn, void *env, bridge_value_t *out, bridge_call_status_t *status);",
	"release": "extern void %s(uint64_t handle, bridge_call_status_t *status);",
}

func (CHeader) Emit(w io.Writer, reg *metadata.Registry) error {
	var b strings.Builder
	b.WriteString(cHeaderPrelude)

	if len(reg.Objects) > 0 {
		b.WriteString("\n/* Object handles. Exported types: ")
		b.WriteString(strings.Join(reg.Objects, ", "))
		b.WriteString(". */\n")
		fmt.Fprintf(&b, declTemplates["release"], "bridge_object_acquire")
		b.WriteByte('\n')
		fmt.Fprintf(&b, declTemplates["release"], "bridge_object_release")
		b.WriteByte('\n')
	}

	records := make([]metadata.Record, len(reg.Records))
	copy(records, reg.Records)
	sort.Slice(records, func(i, j int) bool {
		if records[i].Module != records[j].Module {
			return records[i].Module < records[j].Module
		}
		return records[i].Symbol < records[j].Symbol
	})

	module := ""
	for _, rec := range records {
		if rec.Module != module {
			module = rec.Module
			fmt.Fprintf(&b, "\n/* module %s */\n", module)
		}
		fmt.Fprintf(&b, "\n/* %s */\n", signatureComment(rec))
		for _, d := range declsFor(rec) {
			b.WriteString(d)
			b.WriteByte('\n')
		}
	}

	b.WriteString(cHeaderEpilogue)
	_, err := io.WriteString(w, b.String())
	return err
}

func declsFor(rec metadata.Record) []string {
	if !rec.Async {
		return []string{fmt.Sprintf(declTemplates["sync"], rec.Symbol)}
	}
	return []string{
		fmt.Sprintf(declTemplates["invoke"], rec.Symbol),
		fmt.Sprintf(declTemplates["poll"], rec.PollSymbol),
		fmt.Sprintf(declTemplates["release"], rec.ReleaseSymbol),
	}
}

// signatureComment renders the declared shape of an export, e.g.
//
//	demo.Counter.add(amount: u64) -> u64 throws CounterError [async]
func signatureComment(rec metadata.Record) string {
	var b strings.Builder
	b.WriteString(rec.QualifiedName())
	b.WriteByte('(')
	for i, p := range rec.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Name != "" {
			b.WriteString(p.Name)
			b.WriteString(": ")
		}
		b.WriteString(p.Type)
	}
	b.WriteByte(')')
	if rec.Result != "" {
		b.WriteString(" -> ")
		b.WriteString(rec.Result)
	}
	if rec.Throws != "" {
		b.WriteString(" throws ")
		b.WriteString(rec.Throws)
	}
	if rec.Async {
		if rec.Executor != "" {
			fmt.Fprintf(&b, " [async, executor=%s]", rec.Executor)
		} else {
			b.WriteString(" [async]")
		}
	}
	return b.String()
}
