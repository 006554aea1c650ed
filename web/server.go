package web

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/toslib/tos_browser/config"
	"github.com/toslib/tos_browser/vfs"
)

var ServerDirectory vfs.Directory
var ServerConfig *config.Config

func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/action/{file}/{action}/{param:.+}", HandlerActionPackFileParam)
	r.HandleFunc("/action/{file}/{action}", HandlerActionPackFile)
	r.HandleFunc("/json/pack/{file}/{param:.+}", HandlerAjaxPackFileParam)
	r.HandleFunc("/json/pack/{file}", HandlerAjaxPackFile)
	r.HandleFunc("/json/pack", HandlerAjaxPack)
	r.HandleFunc("/dump/pack/{file}/{param:.+}", HandlerDumpPackParamFile)
	r.HandleFunc("/dump/pack/{file}", HandlerDumpPackFile)
	r.HandleFunc("/ws/status", HandlerWebsocketStatus)
	return r
}

func StartServer(c *config.Config, d vfs.Directory, webPath string) error {
	ServerDirectory = d
	ServerConfig = c

	r := NewRouter()
	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(webPath)))
	}

	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", c.Addr)

	return http.ListenAndServe(c.Addr, h)
}
