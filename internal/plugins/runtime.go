package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"
	"github.com/vrsandeep/xwc-settings/internal/fields"
	"gitlab.com/tozd/go/errors"
)

// DefaultCallTimeout bounds a single call into a plugin.
const DefaultCallTimeout = 5 * time.Second

// PluginRuntime manages a goja VM for a plugin. A goja VM is not safe for
// concurrent use, so calls are serialized.
type PluginRuntime struct {
	mu        sync.Mutex
	vm        *goja.Runtime
	exports   *goja.Object
	manifest  *PluginManifest
	pluginDir string
	timeout   time.Duration
	log       zerolog.Logger
}

// NewPluginRuntime reads the plugin script and evaluates it.
func NewPluginRuntime(manifest *PluginManifest, pluginDir string, log zerolog.Logger) (*PluginRuntime, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	r := &PluginRuntime{
		vm:        vm,
		manifest:  manifest,
		pluginDir: pluginDir,
		timeout:   DefaultCallTimeout,
		log:       log.With().Str("plugin", manifest.ID).Logger(),
	}
	r.inject()

	// Load plugin script
	scriptPath := filepath.Join(pluginDir, manifest.EntryPoint)
	scriptData, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, errors.Errorf("failed to read plugin script: %w", err)
	}

	// Create CommonJS-like exports object
	exports := vm.NewObject()
	module := vm.NewObject()
	module.Set("exports", exports)
	vm.Set("exports", exports)
	vm.Set("module", module)

	// Wrap script in a function to provide module-like context
	moduleScript := fmt.Sprintf(`
		(function(exports, module) {
			%s
		})(exports, module);
	`, string(scriptData))

	if _, err := vm.RunScript(scriptPath, moduleScript); err != nil {
		return nil, &PluginError{PluginID: manifest.ID, Function: "<load>", Message: "failed to execute plugin script", Cause: err}
	}

	// module.exports may have been replaced by the script.
	exportsVal := module.Get("exports")
	if exportsVal == nil || goja.IsUndefined(exportsVal) || goja.IsNull(exportsVal) {
		return nil, errors.New("plugin does not export 'exports' object")
	}
	r.exports = exportsVal.ToObject(vm)

	for _, exp := range []string{"name", "render"} {
		if v := r.exports.Get(exp); v == nil || goja.IsUndefined(v) {
			return nil, errors.Errorf("plugin missing required export: %s", exp)
		}
	}
	return r, nil
}

// inject exposes the xwc helper object to plugin scripts.
func (r *PluginRuntime) inject() {
	xwc := r.vm.NewObject()

	logObj := r.vm.NewObject()
	logObj.Set("info", r.logAt(zerolog.InfoLevel))
	logObj.Set("warn", r.logAt(zerolog.WarnLevel))
	logObj.Set("error", r.logAt(zerolog.ErrorLevel))
	logObj.Set("debug", r.logAt(zerolog.DebugLevel))
	xwc.Set("log", logObj)

	utils := r.vm.NewObject()
	utils.Set("clean", func(v any) any { return fields.Clean(v) })
	utils.Set("escapeHTML", html.EscapeString)
	utils.Set("stringToArray", func(v any) []string { return fields.StringToArray(v) })
	xwc.Set("utils", utils)

	xwc.Set("config", r.manifest.configDefaults())
	r.vm.Set("xwc", xwc)
}

func (r *PluginRuntime) logAt(level zerolog.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := make([]any, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = arg.Export()
		}
		r.log.WithLevel(level).Msg(fmt.Sprint(args...))
		return goja.Undefined()
	}
}

// Manifest returns the plugin manifest.
func (r *PluginRuntime) Manifest() *PluginManifest {
	return r.manifest
}

// SetTimeout changes how long a single call may run.
func (r *PluginRuntime) SetTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = d
}

// Has reports whether the plugin exports name.
func (r *PluginRuntime) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.exports.Get(name)
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

// Export returns an exported value converted to Go, or nil.
func (r *PluginRuntime) Export(name string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.exports.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

// Call calls an exported function.
func (r *PluginRuntime) Call(functionName string, args ...any) (any, error) {
	return r.CallWithContext(context.Background(), functionName, args...)
}

// CallWithContext calls an exported function. The call is interrupted
// when ctx ends or the runtime timeout passes.
func (r *PluginRuntime) CallWithContext(ctx context.Context, functionName string, args ...any) (result any, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn, ok := goja.AssertFunction(r.exports.Get(functionName))
	if !ok {
		return nil, &PluginError{PluginID: r.manifest.ID, Function: functionName, Message: "function not found"}
	}

	gojaArgs := make([]goja.Value, len(args))
	for i, arg := range args {
		gojaArgs[i] = r.toJS(arg)
	}

	timer := time.AfterFunc(r.timeout, func() { r.vm.Interrupt("timeout") })
	stop := context.AfterFunc(ctx, func() { r.vm.Interrupt("canceled") })
	defer func() {
		timer.Stop()
		stop()
		r.vm.ClearInterrupt()
		if panicVal := recover(); panicVal != nil {
			err = &PluginError{
				PluginID: r.manifest.ID,
				Function: functionName,
				Message:  fmt.Sprintf("panic: %v", panicVal),
				IsPanic:  true,
			}
		}
	}()

	val, callErr := fn(goja.Undefined(), gojaArgs...)
	if callErr != nil {
		var interrupted *goja.InterruptedError
		return nil, &PluginError{
			PluginID:  r.manifest.ID,
			Function:  functionName,
			Message:   "call failed",
			Cause:     callErr,
			IsTimeout: errors.As(callErr, &interrupted),
		}
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	return val.Export(), nil
}

// toJS converts Go values through their JSON form so ordered arrays and
// tagged structs reach the script as plain objects.
func (r *PluginRuntime) toJS(v any) goja.Value {
	switch v.(type) {
	case nil:
		return goja.Null()
	case string, bool, int, int64, float64:
		return r.vm.ToValue(v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return r.vm.ToValue(v)
	}
	var plain any
	if err := json.Unmarshal(data, &plain); err != nil {
		return r.vm.ToValue(v)
	}
	return r.vm.ToValue(plain)
}
