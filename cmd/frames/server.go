package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iocgo/frames"
	"github.com/iocgo/frames/stack"
)

// frameJSON is the wire shape of one frame.
type frameJSON struct {
	Function  string `json:"function"`
	Package   string `json:"package"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Lineno    int    `json:"lineno"`
	Depth     int    `json:"depth"`
	Goroutine int64  `json:"goroutine"`
	Panic     bool   `json:"panic,omitempty"`
}

func toJSON(v frames.View) frameJSON {
	return frameJSON{
		Function:  v.Function(),
		Package:   v.Package(),
		File:      v.File(),
		Line:      v.Line(),
		Lineno:    v.Lineno(),
		Depth:     v.Depth(),
		Goroutine: v.Goroutine(),
		Panic:     v.Panic() != nil,
	}
}

type framesRouter struct{}

func (r framesRouter) Routers(route gin.IRouter) {
	route.GET("/backend", r.backend)
	route.GET("/frames", r.chain)
	route.GET("/frames/locate", r.locate)
}

func (framesRouter) backend(ctx *gin.Context) {
	detected, err := stack.Detect()
	body := gin.H{"active": stack.Active().Mode().String(), "detected": detected.String()}
	if err != nil {
		body["error"] = err.Error()
	}
	ctx.JSON(http.StatusOK, body)
}

// chain lists the handler goroutine's stack, starting at the handler.
func (framesRouter) chain(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	view, err := frames.CurrentFrame()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list := make([]frameJSON, 0)
	for v := view; v.Present(); v = v.Caller() {
		if limit > 0 && len(list) == limit {
			break
		}
		list = append(list, toJSON(v))
	}
	ctx.JSON(http.StatusOK, gin.H{"mode": view.Handle().Mode().String(), "frames": list})
}

// locate finds the nearest caller of the handler whose function name ends
// with the function query.
func (framesRouter) locate(ctx *gin.Context) {
	function := ctx.Query("function")
	if function == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "function is required"})
		return
	}

	var opts []frames.Option
	if ok, _ := strconv.ParseBool(ctx.DefaultQuery("include_root", "false")); ok {
		opts = append(opts, frames.IncludeRoot())
	}

	found, err := frames.Locate(func(f frames.StackFrame) bool {
		return strings.HasSuffix(f.Function(), function)
	}, opts...)
	if errors.Is(err, frames.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	view, err := frames.As[frames.View](found)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toJSON(view))
}

func NewEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	framesRouter{}.Routers(engine)
	return engine
}
