package jsonutil_test

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/drblury/contractserver/jsonutil"
)

func Example() {
	type binding struct {
		OperationID string `json:"operationId"`
		Method      string `json:"method"`
		Bound       bool   `json:"bound"`
	}

	data, _ := jsonutil.Marshal(binding{OperationID: "listPets", Method: "GET", Bound: true})
	fmt.Println(string(data))

	var decoded binding
	_ = jsonutil.Unmarshal(data, &decoded)
	fmt.Println(decoded.OperationID)

	// Output:
	// {"operationId":"listPets","method":"GET","bound":true}
	// listPets
}

func ExampleValid() {
	fmt.Println(jsonutil.Valid([]byte(`{"openapi":"3.0.3"}`)))
	fmt.Println(jsonutil.Valid([]byte(`{"openapi":"3.0.3"`)))

	// Output:
	// true
	// false
}

func ExampleMarshalIndent() {
	info := map[string]any{
		"title":   "Petstore",
		"version": "1.0.0",
	}

	data, err := jsonutil.MarshalIndent(info, "", "  ")
	if err != nil {
		fmt.Println("marshal error:", err)
		return
	}
	fmt.Println(strings.TrimSpace(string(data)))

	// Output:
	// {
	//   "title": "Petstore",
	//   "version": "1.0.0"
	// }
}

func ExampleEncode_stream() {
	type probe struct {
		Status string `json:"status"`
	}

	buf := &bytes.Buffer{}
	if err := jsonutil.Encode(buf, probe{Status: "ready"}); err != nil {
		fmt.Println("encode error:", err)
		return
	}
	fmt.Println(strings.TrimSpace(buf.String()))

	var decoded probe
	if err := jsonutil.Decode(bytes.NewReader(buf.Bytes()), &decoded); err != nil {
		fmt.Println("decode error:", err)
		return
	}
	fmt.Println(decoded.Status)

	// Output:
	// {"status":"ready"}
	// ready
}
