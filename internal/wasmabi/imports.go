//go:build wasip1

package wasmabi

// Host-supplied C ABI imports (spec.md §4.4, §4.6, §6). Every pointer here
// is a byte offset into this module's own linear memory: the host must
// have already copied any string it passes in, and any buffer it hands
// back is released by this side through the paired free import.

//go:wasmimport env rdf_insert
func rdfInsertImport(subjectPtr, predicatePtr, objJSONPtr uint32) uint32

//go:wasmimport env rdf_delete
func rdfDeleteImport(subjectPtr, predicatePtr, objJSONPtr uint32) uint32

//go:wasmimport env rdf_query
func rdfQueryImport(patternJSONPtr uint32) uint32

//go:wasmimport env rdf_batch_insert
func rdfBatchInsertImport(triplesJSONPtr uint32) uint32

//go:wasmimport env rdf_free
func rdfFreeImport(ptr uint32)

//go:wasmimport env fetch_module
func fetchModuleImport(urlPtr, lenOutPtr uint32) uint32

//go:wasmimport env free_module
func freeModuleImport(ptr uint32)

//go:wasmimport env get_last_fetch_error
func getLastFetchErrorImport(lenOutPtr uint32) uint32
