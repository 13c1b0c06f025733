package services

import "sync"

// schemaLockRegistry 按Schema名称的命名锁
// 同一Schema上并发的开通/升级/回滚会对应用账本做读后写，必须串行执行；
// 进程内由该命名锁强制，跨进程由迁移引擎自身的数据库advisory锁兜底
type schemaLockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSchemaLockRegistry() *schemaLockRegistry {
	return &schemaLockRegistry{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock 获取指定Schema的锁，返回解锁函数
func (r *schemaLockRegistry) Lock(schemaName string) func() {
	r.mu.Lock()
	lock, ok := r.locks[schemaName]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[schemaName] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
