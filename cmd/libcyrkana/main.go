// libcyrkana exposes the engine through a C ABI for keyboard hosts.
//
// Build:
//
//	go build -buildmode=c-shared -o libcyrkana.so ./cmd/libcyrkana
//
// Strings passed in are copied; they stay owned by the caller. Strings
// returned by cyrkana_process_key and cyrkana_get_profiles are allocated with
// malloc and must be released with cyrkana_free_string. cyrkana_last_error
// also returns an owned string. cyrkana_version returns a static string.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"os"
	"unsafe"

	"github.com/aretw0/cyrkana"
	"github.com/aretw0/cyrkana/internal/logging"
	"github.com/aretw0/cyrkana/pkg/bridge"
)

var (
	shared = newBridge()
	// Allocated once and never freed.
	version = C.CString(cyrkana.Version)
)

func newBridge() *bridge.Bridge {
	logger, err := logging.FromString(os.Getenv("CYRKANA_LOG_LEVEL"))
	if err != nil {
		logger = logging.NewNop()
	}
	return bridge.New(cyrkana.New(cyrkana.WithLogger(logger)), bridge.WithLogger(logger))
}

func boolInt(ok bool) C.int {
	if ok {
		return 1
	}
	return 0
}

//export cyrkana_init
func cyrkana_init(profilesJSON *C.char, phoneticJSON *C.char) C.int {
	if profilesJSON == nil || phoneticJSON == nil {
		return 0
	}
	return boolInt(shared.Init(C.GoString(profilesJSON), C.GoString(phoneticJSON)))
}

//export cyrkana_load_schema
func cyrkana_load_schema(schemaJSON *C.char, schemaID *C.char) C.int {
	if schemaJSON == nil || schemaID == nil {
		return 0
	}
	return boolInt(shared.LoadSchema(C.GoString(schemaJSON), C.GoString(schemaID)))
}

//export cyrkana_process_key
func cyrkana_process_key(key *C.char, buffer *C.char, profileID *C.char) *C.char {
	if key == nil || buffer == nil || profileID == nil {
		return nil
	}
	out, ok := shared.ProcessKey(C.GoString(key), C.GoString(buffer), C.GoString(profileID))
	if !ok {
		return nil
	}
	return C.CString(out)
}

//export cyrkana_get_profiles
func cyrkana_get_profiles() *C.char {
	out, ok := shared.Profiles()
	if !ok {
		return nil
	}
	return C.CString(out)
}

//export cyrkana_last_error
func cyrkana_last_error() *C.char {
	msg := shared.LastError()
	if msg == "" {
		return nil
	}
	return C.CString(msg)
}

//export cyrkana_free_string
func cyrkana_free_string(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

//export cyrkana_version
func cyrkana_version() *C.char {
	return version
}

func main() {}
