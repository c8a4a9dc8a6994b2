package server

import (
	"encoding/json"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
	"mhs/calculator"
	"mhs/model"
)

// 消息类型
const (
	MsgEnv        = "env"
	MsgStart      = "start"
	MsgStop       = "stop"
	MsgStep       = "step"
	MsgCheckpoint = "checkpoint"
	MsgRollback   = "rollback"
	MsgHistory    = "history"

	ReplyEnvSet          = "envSet"
	ReplyStarted         = "started"
	ReplyStopped         = "stopped"
	ReplyFrame           = "frame"
	ReplyFinished        = "finished"
	ReplyCheckpointSaved = "checkpointSaved"
	ReplyHistory         = "history"
	ReplyError           = "error"
)

// Hub 一个 websocket 连接对应一个 Hub 和一个计算器
type Hub struct {
	c   calculator.Calculator
	dir string
	// request
	msg chan model.Msg
	// response
	reply chan model.Msg
	// 当前 Run 和推送协程都退出后关闭
	runDone chan struct{}
}

func NewHub(c calculator.Calculator, dir string) *Hub {
	return &Hub{
		c:     c,
		dir:   dir,
		msg:   make(chan model.Msg, 10),
		reply: make(chan model.Msg, 10),
	}
}

func (h *Hub) handleResponse(write func(msg *model.Msg) error) {
	for reply := range h.reply {
		if err := write(&reply); err != nil {
			log.WithError(err).WithField("type", reply.Type).Warn("消息发送失败")
		}
	}
}

// handleRequest 依次处理请求，请求通道关闭后停止计算并关闭响应通道
func (h *Hub) handleRequest() {
	for msg := range h.msg {
		h.handle(msg)
	}
	h.stopRun()
	if h.c != nil {
		h.c.Close()
	}
	close(h.reply)
}

func (h *Hub) handle(msg model.Msg) {
	if msg.Type != MsgEnv && msg.Type != MsgStop && h.c == nil {
		h.replyError("environment is not set")
		return
	}
	if h.running() && msg.Type != MsgStop && msg.Type != MsgEnv {
		h.replyError("calculator is running")
		return
	}
	switch msg.Type {
	case MsgEnv:
		h.setEnv(msg.Content)
	case MsgStart:
		h.reply <- model.Msg{Type: ReplyStarted}
		h.start()
	case MsgStop:
		if !h.running() {
			h.reply <- model.Msg{Type: ReplyStopped}
			return
		}
		h.stopRun()
	case MsgStep:
		if !h.c.Step() {
			h.reply <- model.Msg{Type: ReplyFinished}
			return
		}
		h.replyFrame(h.c.BuildData())
	case MsgCheckpoint:
		h.c.Checkpoint()
		h.reply <- model.Msg{Type: ReplyCheckpointSaved}
	case MsgRollback:
		if err := h.c.Rollback(); err != nil {
			h.replyError(err.Error())
			return
		}
		h.replyFrame(h.c.BuildData())
	case MsgHistory:
		h.replyJSON(ReplyHistory, h.c.History())
	default:
		log.WithField("type", msg.Type).Warn("no such type")
		h.replyError("no such type: " + msg.Type)
	}
}

// 配置内容为 ini 文本，扫描路径文件相对于服务端配置文件所在目录
func (h *Hub) setEnv(content string) {
	file, err := ini.Load([]byte(content))
	if err != nil {
		h.replyError(err.Error())
		return
	}
	c, err := calculator.NewCalculatorFromIni(file, h.dir)
	if err != nil {
		h.replyError(err.Error())
		return
	}
	h.stopRun()
	if h.c != nil {
		h.c.Close()
	}
	h.c = c
	h.reply <- model.Msg{Type: ReplyEnvSet, Content: "env is set"}
}

func (h *Hub) running() bool {
	if h.runDone == nil {
		return false
	}
	select {
	case <-h.runDone:
		return false
	default:
		return true
	}
}

func (h *Hub) start() {
	calcHub := h.c.GetCalcHub()
	calcHub.StartSignal()
	done := make(chan struct{})
	h.runDone = done

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.c.Run()
	}()
	go func() {
		defer wg.Done()
		h.pushFrames(calcHub)
	}()
	go func() {
		wg.Wait()
		close(done)
	}()
}

// 每完成一个时间步推送一帧，计算结束或停止后推送 stopped
func (h *Hub) pushFrames(calcHub *calculator.CalcHub) {
	stop := calcHub.Stop()
	for {
		select {
		case frame := <-calcHub.PeriodCalcResult:
			h.replyFrame(frame)
		case <-stop:
			frame := h.c.BuildData()
			h.reply <- model.Msg{Type: ReplyStopped, Content: strconv.FormatFloat(frame.Time, 'g', -1, 64)}
			return
		}
	}
}

// 停止计算并等待推送协程退出
func (h *Hub) stopRun() {
	if h.runDone == nil {
		return
	}
	h.c.GetCalcHub().StopSignal()
	<-h.runDone
	h.runDone = nil
}

func (h *Hub) replyFrame(frame *model.Frame) {
	h.replyJSON(ReplyFrame, frame)
}

func (h *Hub) replyJSON(typ string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("数据序列化失败")
		h.replyError(err.Error())
		return
	}
	h.reply <- model.Msg{Type: typ, Content: string(data)}
}

func (h *Hub) replyError(content string) {
	h.reply <- model.Msg{Type: ReplyError, Content: content}
}
