package plugins

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xpath"
	"github.com/dop251/goja"
	"golang.org/x/net/html"
)

// QuillAPI provides the host API that source scripts can use: an HTTP
// client, logging, and HTML parsing utilities.
type QuillAPI struct {
	pluginID string
	vm       *goja.Runtime // Current VM context
}

// NewQuillAPI creates a new API instance for a plugin.
func NewQuillAPI(pluginID string) *QuillAPI {
	return &QuillAPI{pluginID: pluginID}
}

// Inject injects the quill API object into a goja runtime.
func (q *QuillAPI) Inject(vm *goja.Runtime) {
	q.vm = vm
	quill := vm.NewObject()

	// HTTP client
	httpObj := vm.NewObject()
	httpObj.Set("get", q.httpGet)
	httpObj.Set("post", q.httpPost)
	quill.Set("http", httpObj)

	// Logging
	logObj := vm.NewObject()
	logObj.Set("info", q.logAt("INFO"))
	logObj.Set("warn", q.logAt("WARN"))
	logObj.Set("error", q.logAt("ERROR"))
	logObj.Set("debug", q.logAt("DEBUG"))
	quill.Set("log", logObj)

	// HTML utilities
	utilsObj := vm.NewObject()
	utilsObj.Set("parseHTML", q.parseHTML)
	utilsObj.Set("xpath", q.xpathQuery)
	quill.Set("utils", utilsObj)

	vm.Set("quill", quill)
}

// httpGet performs an HTTP GET request on behalf of the script.
func (q *QuillAPI) httpGet(call goja.FunctionCall) goja.Value {
	vm := q.vm
	url := call.Argument(0).String()
	if url == "" {
		vm.Interrupt("http.get error: URL is required")
		return goja.Undefined()
	}

	var options map[string]interface{}
	if len(call.Arguments) > 1 && !goja.IsUndefined(call.Argument(1)) {
		options, _ = call.Argument(1).ToObject(vm).Export().(map[string]interface{})
	}

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		vm.Interrupt(fmt.Sprintf("http.get error: failed to create request for '%s': %v", url, err))
		return goja.Undefined()
	}
	applyHeaders(req, options)
	// Sites frequently require a referer matching the page itself.
	if req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", url)
	}

	return q.doRequest(req, options)
}

// httpPost performs an HTTP POST request on behalf of the script.
func (q *QuillAPI) httpPost(call goja.FunctionCall) goja.Value {
	vm := q.vm
	url := call.Argument(0).String()
	if url == "" {
		vm.Interrupt("http.post error: URL is required")
		return goja.Undefined()
	}

	var bodyData interface{}
	var options map[string]interface{}
	if len(call.Arguments) > 1 {
		bodyData = call.Argument(1).Export()
	}
	if len(call.Arguments) > 2 && !goja.IsUndefined(call.Argument(2)) {
		options, _ = call.Argument(2).ToObject(vm).Export().(map[string]interface{})
	}

	var body io.Reader
	contentType := "application/json"
	if bodyData != nil {
		if bodyStr, ok := bodyData.(string); ok {
			body = strings.NewReader(bodyStr)
			contentType = "text/plain"
		} else {
			jsonData, err := json.Marshal(bodyData)
			if err != nil {
				vm.Interrupt(fmt.Sprintf("http.post error: failed to marshal request body for '%s': %v", url, err))
				return goja.Undefined()
			}
			body = strings.NewReader(string(jsonData))
		}
	}

	req, err := http.NewRequest("POST", url, body)
	if err != nil {
		vm.Interrupt(fmt.Sprintf("http.post error: failed to create request for '%s': %v", url, err))
		return goja.Undefined()
	}
	req.Header.Set("Content-Type", contentType)
	applyHeaders(req, options)

	return q.doRequest(req, options)
}

func (q *QuillAPI) doRequest(req *http.Request, options map[string]interface{}) goja.Value {
	vm := q.vm
	client := &http.Client{Timeout: requestTimeout(options)}

	resp, err := client.Do(req)
	if err != nil {
		vm.Interrupt(fmt.Sprintf("http error: request to '%s' failed: %v", req.URL, err))
		return goja.Undefined()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		vm.Interrupt(fmt.Sprintf("http error: failed to read response body from '%s': %v", req.URL, err))
		return goja.Undefined()
	}

	// Try to parse as JSON; fall back to text.
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		data = string(body)
	}

	respObj := vm.NewObject()
	respObj.Set("status", resp.StatusCode)
	respObj.Set("statusText", resp.Status)
	respObj.Set("headers", q.headersToJS(vm, resp.Header))
	respObj.Set("data", q.goToJS(vm, data))
	respObj.Set("text", func() string { return string(body) })
	return respObj
}

func requestTimeout(options map[string]interface{}) time.Duration {
	timeout := 30 * time.Second
	if options == nil {
		return timeout
	}
	switch v := options["timeout"].(type) {
	case float64:
		timeout = time.Duration(v) * time.Second
	case int:
		timeout = time.Duration(v) * time.Second
	case int64:
		timeout = time.Duration(v) * time.Second
	}
	return timeout
}

func applyHeaders(req *http.Request, options map[string]interface{}) {
	if options == nil {
		return
	}
	if headers, ok := options["headers"].(map[string]interface{}); ok {
		for k, v := range headers {
			req.Header.Set(k, fmt.Sprint(v))
		}
	}
}

func (q *QuillAPI) logAt(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := make([]interface{}, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = arg.Export()
		}
		log.Printf("[%s] %s: %v", q.pluginID, level, fmt.Sprint(args...))
		return goja.Undefined()
	}
}

func (q *QuillAPI) goToJS(vm *goja.Runtime, v interface{}) goja.Value {
	if v == nil {
		return goja.Null()
	}
	switch val := v.(type) {
	case []interface{}:
		arr := vm.NewArray(len(val))
		for i, item := range val {
			arr.Set(fmt.Sprintf("%d", i), q.goToJS(vm, item))
		}
		return arr
	case map[string]interface{}:
		obj := vm.NewObject()
		for k, item := range val {
			obj.Set(k, q.goToJS(vm, item))
		}
		return obj
	case int64:
		return vm.ToValue(int(val))
	default:
		return vm.ToValue(val)
	}
}

func (q *QuillAPI) headersToJS(vm *goja.Runtime, headers http.Header) goja.Value {
	headerMap := make(map[string]interface{})
	for k, v := range headers {
		if len(v) > 0 {
			headerMap[k] = v[0]
		}
	}
	return q.goToJS(vm, headerMap)
}

// parseHTML parses an HTML string and returns a document object with
// querySelector / querySelectorAll backed by goquery. The raw HTML is
// kept on the object for XPath queries.
func (q *QuillAPI) parseHTML(call goja.FunctionCall) goja.Value {
	vm := q.vm
	htmlStr := call.Argument(0).String()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		vm.Interrupt(fmt.Sprintf("parseHTML error: failed to parse HTML: %v", err))
		return goja.Undefined()
	}

	docObj := vm.NewObject()
	docObj.Set("querySelector", func(selector string) goja.Value {
		selection := doc.Find(selector).First()
		if selection.Length() == 0 {
			return vm.ToValue(nil)
		}
		return q.elementToJS(vm, selection)
	})
	docObj.Set("querySelectorAll", func(selector string) goja.Value {
		return q.selectionToJS(vm, doc.Find(selector))
	})
	docObj.Set("_html", htmlStr)
	return docObj
}

// xpathQuery executes an XPath expression against a document produced by
// parseHTML (or a raw HTML string) and returns the matching elements.
func (q *QuillAPI) xpathQuery(call goja.FunctionCall) goja.Value {
	vm := q.vm
	if len(call.Arguments) < 2 {
		vm.Interrupt("xpath error: requires a document (from parseHTML) or HTML string, and an XPath expression")
		return goja.Undefined()
	}

	xpathExpr := call.Argument(1).String()
	htmlStr := ""
	docVal := call.Argument(0)
	if docObj := docVal.ToObject(vm); docObj != nil {
		if htmlVal := docObj.Get("_html"); htmlVal != nil && !goja.IsUndefined(htmlVal) {
			htmlStr = htmlVal.String()
		}
	}
	if htmlStr == "" {
		htmlStr = docVal.String()
	}
	if htmlStr == "" || xpathExpr == "" {
		vm.Interrupt("xpath error: HTML string and XPath expression are required")
		return goja.Undefined()
	}

	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		vm.Interrupt(fmt.Sprintf("xpath error: failed to parse HTML: %v", err))
		return goja.Undefined()
	}

	expr, err := xpath.Compile(xpathExpr)
	if err != nil {
		vm.Interrupt(fmt.Sprintf("xpath error: failed to compile expression '%s': %v", xpathExpr, err))
		return goja.Undefined()
	}

	iter := expr.Select(newHTMLNavigator(doc))
	var elements []goja.Value
	for iter.MoveNext() {
		if nav, ok := iter.Current().(*htmlNavigator); ok {
			selection := goquery.NewDocumentFromNode(nav.node).Selection
			elements = append(elements, q.elementToJS(vm, selection))
		}
	}

	arr := vm.NewArray(len(elements))
	for i, elem := range elements {
		arr.Set(fmt.Sprintf("%d", i), elem)
	}
	return arr
}

// elementToJS converts a goquery selection to a JavaScript element object.
func (q *QuillAPI) elementToJS(vm *goja.Runtime, selection *goquery.Selection) goja.Value {
	element := vm.NewObject()

	element.Set("textContent", selection.Text())

	innerHTML, _ := selection.Html()
	element.Set("innerHTML", innerHTML)

	element.Set("getAttribute", func(name string) goja.Value {
		val, exists := selection.Attr(name)
		if !exists {
			return goja.Undefined()
		}
		return vm.ToValue(val)
	})

	element.Set("querySelector", func(selector string) goja.Value {
		child := selection.Find(selector).First()
		if child.Length() == 0 {
			return vm.ToValue(nil)
		}
		return q.elementToJS(vm, child)
	})

	element.Set("querySelectorAll", func(selector string) goja.Value {
		return q.selectionToJS(vm, selection.Find(selector))
	})

	return element
}

func (q *QuillAPI) selectionToJS(vm *goja.Runtime, selection *goquery.Selection) goja.Value {
	var elements []goja.Value
	selection.Each(func(i int, s *goquery.Selection) {
		elements = append(elements, q.elementToJS(vm, s))
	})

	arr := vm.NewArray(len(elements))
	for i, elem := range elements {
		arr.Set(fmt.Sprintf("%d", i), elem)
	}
	return arr
}
