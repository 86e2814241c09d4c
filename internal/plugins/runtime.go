package plugins

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/quillreads/quill-go/internal/models"
)

// requiredExports are the functions a source script must export to be
// usable as a catalog.
var requiredExports = []string{"search", "getChapters", "getChapterContent"}

const callTimeout = 30 * time.Second

// PluginRuntime manages a goja VM for a plugin.
type PluginRuntime struct {
	vm   *goja.Runtime
	info models.SourceInfo
	api  *QuillAPI
}

// NewPluginRuntime creates a VM, injects the quill API, and executes the
// plugin script inside a CommonJS-like module wrapper.
func NewPluginRuntime(info models.SourceInfo, code string) (*PluginRuntime, error) {
	vm := goja.New()

	api := NewQuillAPI(info.ID)
	api.Inject(vm)

	exports := vm.NewObject()
	vm.Set("exports", exports)

	// Wrap script in a function to provide module-like context,
	// simulating the CommonJS wrapper: (function(exports) { ... })
	moduleScript := fmt.Sprintf(`
		(function(exports) {
			%s
		})(exports);
	`, code)

	if _, err := vm.RunString(moduleScript); err != nil {
		return nil, fmt.Errorf("failed to execute plugin script: %w", err)
	}

	exportsVal := vm.Get("exports")
	if exportsVal == nil || goja.IsUndefined(exportsVal) || goja.IsNull(exportsVal) {
		return nil, fmt.Errorf("plugin does not export 'exports' object")
	}

	exportsObj := exportsVal.ToObject(vm)
	for _, exp := range requiredExports {
		if exportsObj.Get(exp) == nil {
			return nil, fmt.Errorf("plugin missing required export: %s", exp)
		}
	}

	return &PluginRuntime{
		vm:   vm,
		info: info,
		api:  api,
	}, nil
}

// Info returns the plugin's extracted metadata.
func (r *PluginRuntime) Info() models.SourceInfo {
	return r.info
}

// VM returns the goja runtime (for testing).
func (r *PluginRuntime) VM() *goja.Runtime {
	return r.vm
}

// Call calls a plugin function with error recovery.
func (r *PluginRuntime) Call(functionName string, args ...interface{}) (goja.Value, error) {
	return r.CallWithContext(context.Background(), functionName, args...)
}

// CallWithContext calls a plugin function with a context for timeout.
// Panics inside the VM and rejected promises are converted to
// *PluginError rather than crashing the caller.
func (r *PluginRuntime) CallWithContext(ctx context.Context, functionName string, args ...interface{}) (goja.Value, error) {
	exportsObj := r.vm.Get("exports").ToObject(r.vm)
	fn := exportsObj.Get(functionName)
	if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
		return nil, fmt.Errorf("function %s not found", functionName)
	}
	callable, ok := goja.AssertFunction(fn)
	if !ok {
		return nil, fmt.Errorf("function %s is not callable", functionName)
	}

	gojaArgs := make([]goja.Value, len(args))
	for i, arg := range args {
		gojaArgs[i] = r.api.goToJS(r.vm, arg)
	}
	// The quill API object is passed as the last argument.
	gojaArgs = append(gojaArgs, r.vm.Get("quill"))

	pluginID := r.info.ID
	done := make(chan goja.Value, 1)
	errChan := make(chan error, 1)

	go func() {
		defer func() {
			if panicVal := recover(); panicVal != nil {
				errChan <- &PluginError{
					PluginID: pluginID,
					Function: functionName,
					Message:  fmt.Sprintf("panic: %v", panicVal),
					IsPanic:  true,
				}
			}
		}()

		val, err := callable(goja.Undefined(), gojaArgs...)
		if err != nil {
			errChan <- &PluginError{
				PluginID: pluginID,
				Function: functionName,
				Message:  err.Error(),
				Cause:    err,
			}
			return
		}

		// Scripts may return a promise; await it through then().
		if resolved, handled, err := r.awaitPromise(val); handled {
			if err != nil {
				errChan <- &PluginError{
					PluginID: pluginID,
					Function: functionName,
					Message:  err.Error(),
					Cause:    err,
				}
				return
			}
			done <- resolved
			return
		}

		done <- val
	}()

	select {
	case val := <-done:
		return val, nil
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, &PluginError{
			PluginID:  pluginID,
			Function:  functionName,
			Message:   "cancelled",
			Cause:     ctx.Err(),
			IsTimeout: true,
		}
	case <-time.After(callTimeout):
		return nil, &PluginError{
			PluginID:  pluginID,
			Function:  functionName,
			Message:   fmt.Sprintf("timeout after %v", callTimeout),
			IsTimeout: true,
		}
	}
}

// awaitPromise resolves a thenable returned by a plugin function. The
// bool result reports whether the value was a promise at all.
func (r *PluginRuntime) awaitPromise(val goja.Value) (goja.Value, bool, error) {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, false, nil
	}
	promiseObj := val.ToObject(r.vm)
	if promiseObj == nil {
		return nil, false, nil
	}
	then := promiseObj.Get("then")
	if then == nil || goja.IsUndefined(then) {
		return nil, false, nil
	}
	thenFn, ok := goja.AssertFunction(then)
	if !ok {
		return nil, false, nil
	}

	resultChan := make(chan goja.Value, 1)
	errorChan := make(chan error, 1)

	resolveHandler := r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		select {
		case resultChan <- call.Argument(0):
		default:
		}
		return goja.Undefined()
	})
	rejectHandler := r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		errVal := call.Argument(0)
		msg := "unknown error"
		if !goja.IsUndefined(errVal) && !goja.IsNull(errVal) {
			msg = errVal.String()
		}
		select {
		case errorChan <- fmt.Errorf("promise rejected: %s", msg):
		default:
		}
		return goja.Undefined()
	})

	if _, err := thenFn(promiseObj, resolveHandler, rejectHandler); err != nil {
		return nil, true, fmt.Errorf("failed to handle promise: %w", err)
	}

	select {
	case result := <-resultChan:
		return result, true, nil
	case err := <-errorChan:
		return nil, true, err
	case <-time.After(callTimeout):
		return nil, true, fmt.Errorf("promise timeout")
	}
}
