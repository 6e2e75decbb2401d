// Package event 进程内事件分发核心
//
// 监听器按事件名和优先级注册到 Registry，Dispatcher 依次调用：
//
//   - Notify：依次通知，监听器可停止传播
//   - NotifyUntil：某个监听器返回真值后标记已处理并停止
//   - Filter：值依次经过每个监听器，最终写入 Event 的返回值
//
// 每种分发都有同步和异步（continuation）两种模式。异步模式下监听器拿到
// Continuation，调用之前分发不会前进；同一次分发内监听器永远串行执行。
//
//	d := event.NewDispatcher()
//	_ = d.Attach("user.created", event.ListenerFunc(sendWelcome), event.WithPriority(10))
//	ev, err := d.Notify(ctx, "user.created", event.NewEvent(user))
package event
