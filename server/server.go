package server

import (
	"net/http"
	"path/filepath"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"mhs/calculator"
	"mhs/model"
)

var connections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "mhs_server_connections",
	Help: "Open websocket connections",
})

type Server struct {
	addr       string
	configFile string
	upgrader   websocket.Upgrader
}

func NewServer(addr, configFile string, upgrader websocket.Upgrader) *Server {
	return &Server{
		addr:       addr,
		configFile: configFile,
		upgrader:   upgrader,
	}
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket 升级失败")
		return
	}
	defer conn.Close()
	connections.Inc()
	defer connections.Dec()

	// 配置错误时等待客户端通过 env 重新设置
	var c calculator.Calculator
	if s.configFile != "" {
		hfc, err := calculator.NewCalculatorFromFile(s.configFile)
		if err != nil {
			log.WithError(err).WithField("config", s.configFile).Error("计算器创建失败")
		} else {
			c = hfc
		}
	}
	hub := NewHub(c, filepath.Dir(s.configFile))
	responded := make(chan struct{})
	go func() {
		hub.handleResponse(func(msg *model.Msg) error {
			return conn.WriteJSON(msg)
		})
		close(responded)
	}()
	go hub.handleRequest()

	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			log.WithError(err).Info("连接关闭")
			break
		}
		hub.msg <- msg
	}
	close(hub.msg)
	<-responded
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Serve() error {
	log.WithFields(log.Fields{
		"addr":   s.addr,
		"config": s.configFile,
	}).Info("服务启动")
	return http.ListenAndServe(s.addr, s.Handler())
}
