//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/voxelsplace/carve/api"
)

func toJS(out []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(out))
	js.CopyBytesToJS(arr, out)
	return arr
}

func fromJS(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

// bytesFunc exposes a bytes-in/bytes-out conversion, returning the error
// message as a string on failure.
func bytesFunc(missing string, fn func([]byte) ([]byte, error)) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return js.ValueOf(missing)
		}
		out, err := fn(fromJS(args[0]))
		if err != nil {
			return js.ValueOf(err.Error())
		}
		return toJS(out)
	})
}

func packSnapshots(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing files object")
	}
	filesObj := args[0]
	files := map[string][]byte{}
	keys := js.Global().Get("Object").Call("keys", filesObj)
	for i := 0; i < keys.Length(); i++ {
		k := keys.Index(i).String()
		files[k] = fromJS(filesObj.Get(k))
	}
	out, err := api.PackSnapshots(files)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return toJS(out)
}

func unpackFrames(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing pack bytes")
	}
	files, err := api.UnpackToMemory(fromJS(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	// names -> Uint8Array
	result := js.Global().Get("Object").New()
	for name, b := range files {
		result.Set(name, toJS(b))
	}
	return result
}

func main() {
	js.Global().Set("cvol2ply", bytesFunc("missing cvol bytes", api.SnapshotToPLY))
	js.Global().Set("cvol2glb", bytesFunc("missing cvol bytes", api.SnapshotToGLB))
	js.Global().Set("cvpack2glb", bytesFunc("missing pack bytes", api.PackToGLB))
	js.Global().Set("packSnapshots", js.FuncOf(packSnapshots))
	js.Global().Set("unpackFrames", js.FuncOf(unpackFrames))
	select {}
}
