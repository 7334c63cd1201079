// Package httpapi hosts a form registry behind a chi router.
//
// Routes:
//
//	GET    /forms                                   catalog summaries
//	GET    /forms/{formID}                          one schema
//	GET    /instances                               live instance ids
//	POST   /instances/{formID}                      initialize (catalog schema or inline config)
//	GET    /instances/{formID}                      state snapshot
//	DELETE /instances/{formID}                      remove
//	PUT    /instances/{formID}/fields/{fieldID}     set one value (normalized, validated)
//	POST   /instances/{formID}/fields/{fieldID}/touch
//	PATCH  /instances/{formID}/values               bulk write, no validation
//	POST   /instances/{formID}/validate
//	POST   /instances/{formID}/submit
//	POST   /instances/{formID}/reset
//	DELETE /instances/{formID}/errors
//	GET    /instances/{formID}/render/{renderer}
//	GET    /submissions
//	DELETE /submissions
//	GET    /metrics
package httpapi
