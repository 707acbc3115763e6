package modules

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/forgelang/forge/internal/vm"
)

// InstallHTTP registers the `http` namespace: get, post, and request,
// all returning a response object `{status, body, headers}`.
func InstallHTTP(m *vm.Machine) {
	client := &http.Client{Timeout: 30 * time.Second}
	namespace(m, "http", map[string]vm.NativeFunc{
		"get":     httpGet(client),
		"post":    httpPost(client),
		"request": httpRequest(client),
	})
}

func httpGet(client *http.Client) vm.NativeFunc {
	return func(m *vm.Machine, args []vm.Value) (vm.Value, error) {
		if len(args) != 1 {
			return vm.NullValue(), fmt.Errorf("http.get() expects 1 argument, got %d", len(args))
		}
		return doRequest(m, client, "GET", vm.ToString(m.Heap(), args[0]), "", nil)
	}
}

func httpPost(client *http.Client) vm.NativeFunc {
	return func(m *vm.Machine, args []vm.Value) (vm.Value, error) {
		if len(args) < 2 || len(args) > 3 {
			return vm.NullValue(), fmt.Errorf("http.post() expects 2 or 3 arguments, got %d", len(args))
		}
		var headers map[string]vm.Value
		if len(args) == 3 {
			hdrs, err := objectFields(m, args[2], "http.post()")
			if err != nil {
				return vm.NullValue(), err
			}
			headers = hdrs
		}
		return doRequest(m, client, "POST", vm.ToString(m.Heap(), args[0]), vm.ToString(m.Heap(), args[1]), headers)
	}
}

func httpRequest(client *http.Client) vm.NativeFunc {
	return func(m *vm.Machine, args []vm.Value) (vm.Value, error) {
		if len(args) < 2 || len(args) > 4 {
			return vm.NullValue(), fmt.Errorf("http.request() expects method, url[, body[, headers]]")
		}
		method := vm.ToString(m.Heap(), args[0])
		url := vm.ToString(m.Heap(), args[1])
		body := ""
		if len(args) >= 3 {
			body = vm.ToString(m.Heap(), args[2])
		}
		var headers map[string]vm.Value
		if len(args) == 4 {
			hdrs, err := objectFields(m, args[3], "http.request()")
			if err != nil {
				return vm.NullValue(), err
			}
			headers = hdrs
		}
		return doRequest(m, client, method, url, body, headers)
	}
}

func doRequest(m *vm.Machine, client *http.Client, method, url, body string, headers map[string]vm.Value) (vm.Value, error) {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		return vm.NullValue(), fmt.Errorf("http.%s %s: %w", method, url, err)
	}
	for k, v := range headers {
		req.Header.Set(k, vm.ToString(m.Heap(), v))
	}
	resp, err := client.Do(req)
	if err != nil {
		return vm.NullValue(), fmt.Errorf("http.%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return vm.NullValue(), fmt.Errorf("http.%s %s: reading response: %w", method, url, err)
	}

	ref, obj := m.Heap().NewObject()
	obj.Flds["status"] = vm.IntValue(int64(resp.StatusCode))
	obj.Flds["body"] = m.Heap().NewString(string(respBody))
	hdrRef, hdrObj := m.Heap().NewObject()
	for k := range resp.Header {
		hdrObj.Flds[k] = m.Heap().NewString(resp.Header.Get(k))
	}
	obj.Flds["headers"] = hdrRef
	return ref, nil
}
