package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-karan/logjam/pkg/logjam"
	"github.com/tidwall/redcon"
)

func wrongArgs(conn redcon.Conn, cmd redcon.Command) {
	conn.WriteError("ERR wrong number of arguments for '" + string(cmd.Args[0]) + "' command")
}

func (app *App) ping(conn redcon.Conn, cmd redcon.Command) {
	conn.WriteString("PONG")
}

func (app *App) quit(conn redcon.Conn, cmd redcon.Command) {
	conn.WriteString("OK")
	conn.Close()
}

// set handles `SET field value [CHANGED]`. With CHANGED the write is skipped
// when the value is unchanged. Replies 1 if the field was marked present.
func (app *App) set(conn redcon.Conn, cmd redcon.Command) {
	var skipUnchanged bool
	switch len(cmd.Args) {
	case 4:
		if !strings.EqualFold(string(cmd.Args[3]), "changed") {
			conn.WriteError("ERR syntax error")
			return
		}
		skipUnchanged = true
	case 3:
	default:
		wrongArgs(conn, cmd)
		return
	}

	var (
		name = string(cmd.Args[1])
		val  = string(cmd.Args[2])
	)

	app.mu.Lock()
	defer app.mu.Unlock()

	f, err := app.rec.Codec().Catalog().Lookup(name)
	if err != nil {
		conn.WriteError(fmt.Sprintf("ERR %s", err))
		return
	}

	var changed bool
	if f.Signed {
		v, perr := strconv.ParseInt(val, 0, 64)
		if perr != nil {
			conn.WriteError("ERR value is not an integer")
			return
		}
		changed, err = app.rec.SetInt(name, v, skipUnchanged)
	} else {
		v, perr := strconv.ParseUint(val, 0, 64)
		if perr != nil {
			conn.WriteError("ERR value is not an unsigned integer")
			return
		}
		changed, err = app.rec.SetUint(name, v, skipUnchanged)
	}
	if err != nil {
		conn.WriteError(fmt.Sprintf("ERR %s", err))
		return
	}

	app.lo.Debug("updated field", "field", name, "value", val, "changed", changed)
	if changed {
		conn.WriteInt(1)
		return
	}
	conn.WriteInt(0)
}

func (app *App) get(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) != 2 {
		wrongArgs(conn, cmd)
		return
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	val, err := app.rec.Value(string(cmd.Args[1]))
	if err != nil {
		conn.WriteError(fmt.Sprintf("ERR %s", err))
		return
	}
	conn.WriteBulkString(val)
}

func (app *App) present(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) != 2 {
		wrongArgs(conn, cmd)
		return
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	ok, err := app.rec.Present(string(cmd.Args[1]))
	if err != nil {
		conn.WriteError(fmt.Sprintf("ERR %s", err))
		return
	}
	if ok {
		conn.WriteInt(1)
		return
	}
	conn.WriteInt(0)
}

// pending replies with the size FLUSH would currently produce.
func (app *App) pending(conn redcon.Conn, cmd redcon.Command) {
	app.mu.Lock()
	defer app.mu.Unlock()

	conn.WriteInt(app.rec.Size())
}

func (app *App) reset(conn redcon.Conn, cmd redcon.Command) {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.rec.Reset()
	conn.WriteString("OK")
}

// dumpAll replies with every value regardless of presence.
func (app *App) dumpAll(conn redcon.Conn, cmd redcon.Command) {
	app.mu.Lock()
	defer app.mu.Unlock()

	buf, err := app.rec.EncodeAll()
	if err != nil {
		conn.WriteError(fmt.Sprintf("ERR %s", err))
		return
	}
	conn.WriteBulk(buf)
}

// flushCmd replies with the selective copy and clears presence.
func (app *App) flushCmd(conn redcon.Conn, cmd redcon.Command) {
	app.mu.Lock()
	defer app.mu.Unlock()

	buf, err := app.flush()
	if err != nil {
		conn.WriteError(fmt.Sprintf("ERR %s", err))
		return
	}
	conn.WriteBulk(buf)
}

// load applies a selective copy produced elsewhere. Replies with the number
// of bytes consumed.
func (app *App) load(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) != 2 {
		wrongArgs(conn, cmd)
		return
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	n, err := app.rec.Decode(cmd.Args[1])
	if err != nil {
		conn.WriteError(fmt.Sprintf("ERR %s", err))
		return
	}
	conn.WriteInt(n)
}

func (app *App) layout(conn redcon.Conn, cmd redcon.Command) {
	l := app.rec.Codec().Catalog().Layout()

	conn.WriteArray(len(l.Fields))
	for _, f := range l.Fields {
		conn.WriteString(formatFieldLayout(f))
	}
}

func formatFieldLayout(f logjam.FieldLayout) string {
	return fmt.Sprintf("%s code=%d bit=%d offset=%d type=%s", f.Name, f.Code, f.Bit, f.Offset, f.Type)
}
